package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskDistrictWarmup resolves every listing of a variant through the cached
// district resolver.
const TaskDistrictWarmup = "districts.warm"

type DistrictWarmupPayload struct {
	Variant string `json:"variant"`
}

func NewDistrictWarmupTask(payload DistrictWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDistrictWarmup, data), nil
}

func ParseDistrictWarmupPayload(task *asynq.Task) (DistrictWarmupPayload, error) {
	var payload DistrictWarmupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return DistrictWarmupPayload{}, err
	}
	return payload, nil
}
