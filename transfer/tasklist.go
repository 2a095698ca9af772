package transfer

import (
	"fmt"
	"iter"
)

// TaskList is an ordered sequence of tasks run strictly in list order.
type TaskList struct {
	description string
	tasks       []*Task
}

// NewTaskList returns a list holding tasks.
func NewTaskList(description string, tasks ...*Task) *TaskList {
	return &TaskList{description: description, tasks: append([]*Task(nil), tasks...)}
}

func (l *TaskList) Description() string { return l.description }
func (l *TaskList) Len() int            { return len(l.tasks) }

// Add appends tasks.
func (l *TaskList) Add(tasks ...*Task) { l.tasks = append(l.tasks, tasks...) }

// Merge appends every task of others, in order.
func (l *TaskList) Merge(others ...*TaskList) {
	for _, o := range others {
		if o != nil {
			l.tasks = append(l.tasks, o.tasks...)
		}
	}
}

// All iterates over the tasks with their indices.
func (l *TaskList) All() iter.Seq2[int, *Task] {
	return func(yield func(int, *Task) bool) {
		for i, t := range l.tasks {
			if !yield(i, t) {
				return
			}
		}
	}
}

// Run executes the tasks in order and stops at the first failure. The
// returned results cover every task that started, including the failing
// one with its partial commit.
func (l *TaskList) Run(opts Options) ([]Result, error) {
	log := opts.logger()
	results := make([]Result, 0, len(l.tasks))
	for i, t := range l.tasks {
		res, err := t.Run(opts)
		results = append(results, res)
		if err != nil {
			return results, fmt.Errorf("%s: task %d (%s): %w", l.description, i, t.Description(), err)
		}
	}
	log.Sugar().Infof("task list %q complete: %d tasks", l.description, len(l.tasks))
	return results, nil
}

func (l *TaskList) String() string {
	return fmt.Sprintf("TaskList: %s, %d tasks", l.description, len(l.tasks))
}
