package model

import (
	"fmt"
	"runtime/debug"
	"time"
)

type CustomError struct {
	Processor  string                 `json:"processor"`
	Inner      error                  `json:"innerError"`
	Message    string                 `json:"message"`
	StackTrace string                 `json:"stackTrace"`
	Misc       map[string]interface{} `json:"misc"`
}

func (e CustomError) Error() string {
	if e.Inner == nil {
		return fmt.Sprintf("%s: %s", e.Processor, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Processor, e.Message, e.Inner)
}

func (e CustomError) Unwrap() error {
	return e.Inner
}

func GenError(proc string, err error, misc map[string]interface{}, messagef string, args ...interface{}) CustomError {
	return CustomError{
		Processor:  proc,
		Inner:      err,
		Message:    fmt.Sprintf(messagef, args...),
		StackTrace: string(debug.Stack()),
		Misc:       misc,
	}
}

// Category is a recycling bucket.
type Category string

const (
	Plastic Category = "Plastic"
	Metal   Category = "Metal"
	Organic Category = "Organic"
	Paper   Category = "Paper"
	Glass   Category = "Glass"
	// Trash is the overflow bucket for labels with no explicit mapping.
	Trash Category = "Trash"
)

// Categories lists every bucket in display order.
var Categories = []Category{Plastic, Metal, Organic, Paper, Glass, Trash}

type RobotStatus string

const (
	Active  RobotStatus = "Active"
	Standby RobotStatus = "Standby"
)

type Severity string

const (
	Warning  Severity = "Warning"
	Critical Severity = "Critical"
)

// FaultRecord is computed per query and never stored.
type FaultRecord struct {
	Component  string    `json:"component"`
	Issue      string    `json:"issue"`
	Severity   Severity  `json:"severity"`
	ObservedAt time.Time `json:"-"`
	Timestamp  string    `json:"timestamp"`
}

// CountSource tells which path incremented a category counter.
type CountSource string

const (
	SourceTracker  CountSource = "tracker"
	SourceAnalysis CountSource = "analysis"
)

// CountedItem is emitted every time a category counter is incremented.
type CountedItem struct {
	Label     string      `json:"label"`
	Category  Category    `json:"category"`
	Source    CountSource `json:"source"`
	Hour      int         `json:"hour"`
	Timestamp time.Time   `json:"timestamp"`
}

type Analysis struct {
	ID         string    `json:"id"`
	Label      string    `json:"label"`
	Category   Category  `json:"category"`
	Advice     string    `json:"advice"`
	Recyclable bool      `json:"recyclable"`
	Failed     bool      `json:"failed"`
	Timestamp  time.Time `json:"timestamp"`
}

// Outcomes are the recycled/toxic counters fed by analyses.
type Outcomes struct {
	ItemsFound int `json:"items_found"`
	Recycled   int `json:"recycled"`
	Toxic      int `json:"toxic"`
}

type FramerStats struct {
	Name      string `json:"name"`
	Camera    string `json:"camera"`
	FPS       int    `json:"fps"`
	Frames    int    `json:"frames"`
	Dropped   int    `json:"dropped"`
	Errors    int    `json:"errors"`
	Uptime    int64  `json:"uptime"`
	Timestamp int64  `json:"timestamp"`
}

type StreamerStats struct {
	Name        string  `json:"name"`
	Worker      int     `json:"worker"`
	Camera      string  `json:"camera"`
	FPS         int     `json:"fps"`
	Frames      int     `json:"frames"`
	Errors      int     `json:"errors"`
	Uptime      int64   `json:"uptime"`
	AvgProcTime float64 `json:"avgProcTime"`
	Timestamp   int64   `json:"timestamp"`
}

type AgentStats struct {
	ID        string `json:"id"`
	Camera    string `json:"camera"`
	Uptime    int64  `json:"uptime"`
	Timestamp int64  `json:"timestamp"`
}
