package models

// WorkloadStats представляет распределение задач исполнителя по колонкам доски
type WorkloadStats struct {
	Name       string
	ToDo       int
	InProgress int
	Review     int
	Done       int
}

// Total общее количество задач исполнителя.
func (s WorkloadStats) Total() int {
	return s.ToDo + s.InProgress + s.Review + s.Done
}
