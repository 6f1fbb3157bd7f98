package netlist

import (
	"fmt"

	"github.com/edp1096/symspice/pkg/device"
)

func CreateDevice(elem Element) (device.Device, error) {
	var dev device.Device

	switch elem.Type {
	case "R":
		if elem.Value.IsZero() {
			return nil, fmt.Errorf("%s: zero resistance", elem.Name)
		}
		dev = device.NewResistor(elem.Name, elem.Nodes, elem.Value)
	case "C":
		dev = device.NewCapacitor(elem.Name, elem.Nodes, elem.Value)
	case "L":
		dev = device.NewInductor(elem.Name, elem.Nodes, elem.Value)
	case "V":
		dev = device.NewVoltageSource(elem.Name, elem.Nodes, elem.Value)
	case "I":
		dev = device.NewCurrentSource(elem.Name, elem.Nodes, elem.Value)
	case "E":
		dev = device.NewVCVS(elem.Name, elem.Nodes, elem.Value)
	case "G":
		dev = device.NewVCCS(elem.Name, elem.Nodes, elem.Value)
	case "F", "H":
		if len(elem.Refs) != 1 {
			return nil, fmt.Errorf("%s: requires one controlling element", elem.Name)
		}
		if elem.Type == "F" {
			dev = device.NewCCCS(elem.Name, elem.Nodes, elem.Refs[0], elem.Value)
		} else {
			dev = device.NewCCVS(elem.Name, elem.Nodes, elem.Refs[0], elem.Value)
		}
	default:
		return nil, fmt.Errorf("unsupported device type: %s", elem.Type)
	}

	return dev, nil
}
