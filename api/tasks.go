package api

import (
	"context"

	"github.com/ISearcher/Rest4WebApi/httpclient"
	"github.com/ISearcher/Rest4WebApi/httpclient/rest"
	"github.com/ISearcher/Rest4WebApi/validation"
)

// TaskRoute is the resource route of the task list.
const TaskRoute = "tasks"

// TaskClient manages device tasks.
type TaskClient struct {
	res *rest.Resource[Task]
}

// NewTaskClient binds the task list on client.
func NewTaskClient(client *httpclient.Client) *TaskClient {
	return &TaskClient{res: rest.NewResource[Task](client, TaskRoute)}
}

// Resource exposes the underlying verbs.
func (c *TaskClient) Resource() *rest.Resource[Task] { return c.res }

// Create adds task.
func (c *TaskClient) Create(ctx context.Context, task Task) (bool, error) {
	if err := validation.Validate(task); err != nil {
		return false, err
	}
	out, err := c.res.Create(ctx, task, "")
	return succeeded(out, err)
}

// All lists every task. The list is never nil.
func (c *TaskClient) All(ctx context.Context) ([]Task, error) {
	res, err := rest.GetAs[[]Task](ctx, c.res.Core, "")
	return listOf(res, err)
}

// ForDevice lists the tasks assigned to deviceID. The list is never nil.
func (c *TaskClient) ForDevice(ctx context.Context, deviceID string) ([]Task, error) {
	if err := validation.New().Required("device", deviceID).Err(); err != nil {
		return []Task{}, err
	}
	res, err := rest.GetByParamAs[[]Task](ctx, c.res.Core, deviceID, "")
	return listOf(res, err)
}

// Update replaces task on deviceID.
func (c *TaskClient) Update(ctx context.Context, deviceID string, task Task) error {
	v := validation.New().Required("device", deviceID)
	if err := v.Err(); err != nil {
		return err
	}
	if err := validation.Validate(task); err != nil {
		return err
	}
	out, err := c.res.UpdateByParam(ctx, task, deviceID, "")
	_, err = succeeded(out, err)
	return err
}

// Delete removes tasks in one call.
func (c *TaskClient) Delete(ctx context.Context, tasks []Task) (bool, error) {
	out, err := rest.DeleteAs(ctx, c.res.Core, tasks, "")
	return succeeded(out, err)
}
