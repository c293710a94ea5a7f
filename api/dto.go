package api

import "github.com/google/uuid"

// ClientVersion describes a released client build.
type ClientVersion struct {
	Version     Decimal `json:"Version"`
	Name        string  `json:"Name" validate:"required"`
	Description string  `json:"Description"`
	// StableDeviceList holds the devices pinned to this version.
	StableDeviceList []string `json:"StableDeviceList"`
	// CurrentDeviceList holds the devices currently running it.
	CurrentDeviceList []string `json:"CurrentDeviceList"`
}

// Task is a unit of work assigned to devices.
type Task struct {
	Type            int        `json:"Type"`
	TaskEntry       string     `json:"TaskEntry"`
	Name            string     `json:"Name" validate:"required"`
	Description     string     `json:"Description"`
	AssignedDevices []int      `json:"AssignedDevices"`
	Guid            uuid.UUID  `json:"Guid"`
	Status          int        `json:"Status"`
	CreationTime    Timestamp  `json:"CreationTime"`
	StartTime       *Timestamp `json:"StartTime"`
	EndTime         *Timestamp `json:"EndTime"`
}
