package collaboration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask_AppliesDefaults(t *testing.T) {
	t.Parallel()
	task := NewTask("prompt", []string{"a1", "a2"}, ModeDebate)

	assert.NotEmpty(t, task.TaskID)
	assert.Equal(t, DefaultMaxIterations, task.MaxIterations)
	assert.Equal(t, DefaultTimeout, task.Timeout)
}

func TestNewTask_KeepsExplicitValues(t *testing.T) {
	t.Parallel()
	task := &Task{
		TaskID:        "fixed-id",
		Prompt:        "prompt",
		Participants:  []string{"a1", "a2"},
		Mode:          ModeParallel,
		MaxIterations: 7,
		Timeout:       time.Minute,
	}
	task.normalize()

	assert.Equal(t, "fixed-id", task.TaskID)
	assert.Equal(t, 7, task.MaxIterations)
	assert.Equal(t, time.Minute, task.Timeout)
}

func TestTaskValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(*Task)
		wantErr string
	}{
		{"valid", func(*Task) {}, ""},
		{"one participant", func(tk *Task) { tk.Participants = []string{"a1"} }, "participant count"},
		{"empty participants", func(tk *Task) { tk.Participants = nil }, "participant count"},
		{"eleven participants", func(tk *Task) {
			tk.Participants = []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"}
		}, "participant count"},
		{"duplicate", func(tk *Task) { tk.Participants = []string{"a1", "a2", "a1"} }, "duplicate participant"},
		{"negative iterations", func(tk *Task) { tk.MaxIterations = -2 }, "max_iterations"},
		{"unknown mode", func(tk *Task) { tk.Mode = "majority-vote" }, "unsupported mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			task := NewTask("q", []string{"a1", "a2"}, ModeSequential)
			tt.mutate(task)

			err := task.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidTask)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTaskValidate_TenParticipantsAllowed(t *testing.T) {
	t.Parallel()
	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	task := NewTask("q", ids, ModeConsensus)
	assert.NoError(t, task.validate())
}
