package queue

import (
	"context"

	"tiktroq/internal/domain"
)

// Memory — очередь модерации в памяти процесса для локального запуска и тестов.
type Memory struct {
	jobs chan domain.ReviewJob
}

var _ domain.ReviewQueue = (*Memory)(nil)

// NewMemory создаёт буферизированную очередь.
func NewMemory(size int) *Memory {
	if size <= 0 {
		size = 64
	}
	return &Memory{jobs: make(chan domain.ReviewJob, size)}
}

// Enqueue кладёт задачу, блокируясь при заполненном буфере.
func (m *Memory) Enqueue(ctx context.Context, job domain.ReviewJob) error {
	select {
	case m.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pop ждёт следующую задачу.
func (m *Memory) Pop(ctx context.Context) (domain.ReviewJob, error) {
	select {
	case job := <-m.jobs:
		return job, nil
	case <-ctx.Done():
		return domain.ReviewJob{}, ctx.Err()
	}
}
