// Package fleet loads the device connection list `collector run` needs to
// build protocol readers. Machine identity and scheduling data live in
// PostgreSQL (C2); only the addressing a protocol adapter needs to reach a
// physical device — endpoint URLs, serial ports, register maps — lives in
// this file, since entity.Machine carries none of it.
package fleet

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/mesforge/shopfloor/internal/status/lsv2adapter"
	"github.com/mesforge/shopfloor/internal/status/modbusadapter"
	"github.com/mesforge/shopfloor/internal/status/opcuaadapter"
)

// File is the on-disk device config shape: one list per protocol, keyed by
// the flag value `collector run --protocol=` accepts.
type File struct {
	OPCUA  []OPCUADevice  `json:"opcua"`
	LSV2   []LSV2Device   `json:"lsv2"`
	Modbus []ModbusDevice `json:"modbus"`
}

// OPCUADevice is one entry of the opcua list.
type OPCUADevice struct {
	MachineID    string `json:"machine_id"`
	EndpointURL  string `json:"endpoint_url"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	ProgStatus   string `json:"node_prog_status"`
	OpMode       string `json:"node_op_mode"`
	ActParts     string `json:"node_act_parts"`
	ProgName     string `json:"node_prog_name"`
	SelectedProg string `json:"node_selected_prog"`
	ReadTimeout  string `json:"read_timeout"`
}

// LSV2Device is one entry of the lsv2 list. Marker selects the §6
// part-completion signal: "bool" for the M4170 marker (machines 1, 2, 5 in
// the reference fleet) and "dword" for the DWORD 2592 counter everywhere else.
type LSV2Device struct {
	MachineID string `json:"machine_id"`
	Address   string `json:"address"`
	Marker    string `json:"marker"`
	Timeout   string `json:"timeout"`
}

// ModbusDevice is one entry of the modbus list.
type ModbusDevice struct {
	MachineID           string  `json:"machine_id"`
	SerialURL           string  `json:"serial_url"`
	SlaveID             byte    `json:"slave_id"`
	RegActivePower      uint16  `json:"reg_active_power"`
	RegFrequency        uint16  `json:"reg_frequency"`
	RegActiveEnergy     uint16  `json:"reg_active_energy"`
	ThresholdKW         float64 `json:"threshold_kw"`
	Timeout             string  `json:"timeout"`
}

// Load reads and parses path into a File.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read device config %s: %w", path, err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse device config %s: %w", path, err)
	}
	return &f, nil
}

// OPCUAConfigs converts the opcua list into adapter.Config values.
func (f *File) OPCUAConfigs() ([]opcuaadapter.Config, error) {
	configs := make([]opcuaadapter.Config, 0, len(f.OPCUA))
	for _, d := range f.OPCUA {
		machineID, err := uuid.Parse(d.MachineID)
		if err != nil {
			return nil, fmt.Errorf("opcua device %q: invalid machine_id: %w", d.EndpointURL, err)
		}
		configs = append(configs, opcuaadapter.Config{
			MachineID:   machineID,
			EndpointURL: d.EndpointURL,
			Username:    d.Username,
			Password:    d.Password,
			Nodes: opcuaadapter.Nodes{
				ProgStatus:   d.ProgStatus,
				OpMode:       d.OpMode,
				ActParts:     d.ActParts,
				ProgName:     d.ProgName,
				SelectedProg: d.SelectedProg,
			},
			ReadTimeout: parseDuration(d.ReadTimeout),
		})
	}
	return configs, nil
}

// LSV2Configs converts the lsv2 list into adapter.Config values.
func (f *File) LSV2Configs() ([]lsv2adapter.Config, error) {
	configs := make([]lsv2adapter.Config, 0, len(f.LSV2))
	for _, d := range f.LSV2 {
		machineID, err := uuid.Parse(d.MachineID)
		if err != nil {
			return nil, fmt.Errorf("lsv2 device %q: invalid machine_id: %w", d.Address, err)
		}
		marker := lsv2adapter.MarkerDWord
		if d.Marker == "bool" {
			marker = lsv2adapter.MarkerBoolean
		}
		configs = append(configs, lsv2adapter.Config{
			MachineID: machineID,
			Address:   d.Address,
			Marker:    marker,
			Timeout:   parseDuration(d.Timeout),
		})
	}
	return configs, nil
}

// ModbusConfigs converts the modbus list into adapter.Config values.
func (f *File) ModbusConfigs() ([]modbusadapter.Config, error) {
	configs := make([]modbusadapter.Config, 0, len(f.Modbus))
	for _, d := range f.Modbus {
		machineID, err := uuid.Parse(d.MachineID)
		if err != nil {
			return nil, fmt.Errorf("modbus device %q: invalid machine_id: %w", d.SerialURL, err)
		}
		configs = append(configs, modbusadapter.Config{
			MachineID: machineID,
			SerialURL: d.SerialURL,
			SlaveID:   d.SlaveID,
			Registers: modbusadapter.Registers{
				ActivePower:  d.RegActivePower,
				Frequency:    d.RegFrequency,
				ActiveEnergy: d.RegActiveEnergy,
			},
			Threshold: d.ThresholdKW,
			Timeout:   parseDuration(d.Timeout),
		})
	}
	return configs, nil
}

// parseDuration returns the zero Duration on an empty or malformed string,
// letting each adapter's own default (1s) take over.
func parseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
