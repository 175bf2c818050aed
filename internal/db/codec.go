package db

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/resume-tailor/internal/types"
)

func encodeJob(job *types.Job) ([]byte, error) {
	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job %s: %w", job.ID, err)
	}
	return data, nil
}

func decodeJob(data []byte) (*types.Job, error) {
	var job types.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}
