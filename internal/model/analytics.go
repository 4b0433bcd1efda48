package model

// TimelinePoint is the mean score of all results recorded on one UTC
// calendar day. Days with no records are omitted from the series.
type TimelinePoint struct {
	Date         string  `json:"date"` // YYYY-MM-DD, UTC
	AverageScore float64 `json:"average_score"`
}

// DifficultyBucket is one row of the fixed five-label difficulty breakdown.
// Buckets with no items are emitted with Accuracy 0, never omitted.
type DifficultyBucket struct {
	Label    string `json:"label"`
	Total    int    `json:"total"`
	Correct  int    `json:"correct"`
	Accuracy int    `json:"accuracy"` // 0-100
}

// TopicStat is per-topic accuracy and mean time spent. Missing topics are
// grouped under "Uncategorized".
type TopicStat struct {
	Topic         string `json:"topic"`
	Total         int    `json:"total"`
	Correct       int    `json:"correct"`
	Accuracy      int    `json:"accuracy"` // 0-100
	AvgTimeSpentS int    `json:"avg_time_spent_s"`
}

// HistogramBucket counts items whose time spent falls in a fixed range of
// seconds.
type HistogramBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// AnalyticsOverview is the derived dashboard payload. It is recomputed on
// each query and reflects the input record set at call time; nothing here is
// persisted by the engine.
type AnalyticsOverview struct {
	CandidateCount       int                `json:"candidate_count"`
	ExamCount            int                `json:"exam_count"`
	AverageScore         int                `json:"average_score"`
	QuestionCount        int                `json:"question_count"`
	PerformanceOverTime  []TimelinePoint    `json:"performance_over_time"`
	AccuracyByDifficulty []DifficultyBucket `json:"accuracy_by_difficulty"`
	Topics               []TopicStat        `json:"topics"`
	TimeSpentHistogram   []HistogramBucket  `json:"time_spent_histogram"`
}
