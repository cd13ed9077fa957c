package pipeline

import (
	"fmt"
	"time"
)

// Stage names one step of an analysis run.
type Stage string

const (
	StageParse       Stage = "parse"
	StageExtract     Stage = "extract"
	StageRatios      Stage = "ratios"
	StageNarrative   Stage = "narrative"
	StageSummary     Stage = "summary"
	StageTextSummary Stage = "text_summary"
	StageAnalysis    Stage = "analysis"
	StagePersist     Stage = "persist"
)

var stageLabels = map[Stage]string{
	StageParse:       "文件解析錯誤",
	StageExtract:     "指標提取錯誤",
	StageRatios:      "指標計算錯誤",
	StageNarrative:   "規則分析錯誤",
	StageSummary:     "財務摘要生成錯誤",
	StageTextSummary: "文本摘要生成錯誤",
	StageAnalysis:    "財報分析錯誤",
	StagePersist:     "報告儲存錯誤",
}

// Label is the user-facing name used in error messages.
func (s Stage) Label() string {
	if l, ok := stageLabels[s]; ok {
		return l
	}
	return string(s)
}

// StageError reports the stage a run failed in. Stages are never retried.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage.Label(), e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(s Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: s, Err: err}
}

// Observer receives the outcome of every stage, e.g. to export metrics.
type Observer interface {
	ObserveStage(stage Stage, elapsed time.Duration, err error)
}

// StageTiming records how long a stage took.
type StageTiming struct {
	Stage  Stage   `json:"stage"`
	Millis float64 `json:"ms"`
}
