package data

import "github.com/khaledhikmat/ecovision-go/model"

type IService interface {
	NewCountedItem(item model.CountedItem) error
	NewAnalysis(analysis model.Analysis) error
	RetrieveCountedItems(limit int) ([]model.CountedItem, error)
	RetrieveAnalyses(limit int) ([]model.Analysis, error)

	NewError(err interface{}) error
	NewAgentStats(stats model.AgentStats) error
	NewFramerStats(stats model.FramerStats) error
	NewStreamerStats(stats model.StreamerStats) error

	Close() error
}
