package domain

import "github.com/google/uuid"

type Camera struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CompanyID uuid.UUID `json:"company_id" db:"company_id"`
}

type CameraAction string

const (
	CameraTurnedOn         CameraAction = "turned_on"
	CameraTurnedOff        CameraAction = "turned_off"
	CameraStartedRecording CameraAction = "started_recording"
	CameraStoppedRecording CameraAction = "stopped_recording"
	CameraCreated          CameraAction = "created"
	CameraMoved            CameraAction = "moved"
)

func (a CameraAction) IsValid() bool {
	switch a {
	case CameraTurnedOn, CameraTurnedOff, CameraStartedRecording, CameraStoppedRecording,
		CameraCreated, CameraMoved:
		return true
	}
	return false
}

type CameraActionInput struct {
	Camera Camera       `json:"camera"`
	Action CameraAction `json:"action"`
}

type CustomerCreatedInput struct {
	CompanyID    uuid.UUID `json:"company_id"`
	CustomerName string    `json:"customer_name"`
}
