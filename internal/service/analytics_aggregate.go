package service

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/examgate/examgate/internal/model"
)

// ScoredResult is one finalized result feeding the KPI and timeline
// transforms. Both backend attempts and journal completions map onto it.
type ScoredResult struct {
	Candidate string
	Score     int
	At        time.Time
}

// AnswerRecord is one answered item feeding the per-item transforms. The
// difficulty may arrive numeric (1-5) or as a free-text label depending on
// the source; DifficultyLabel resolves either form.
type AnswerRecord struct {
	Topic           string
	Difficulty      int
	DifficultyLabel string
	Correct         bool
	TimeSpentMs     int64
}

// ScorePercent is the canonical score rounding used everywhere a percentage
// is derived: round(100*correct/total), 0 for an empty total.
func ScorePercent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}

// Timeline groups results by UTC calendar day and emits one point per day
// present in the input, in ascending date order. Empty days are omitted, not
// zero-filled.
func Timeline(results []ScoredResult) []model.TimelinePoint {
	type acc struct {
		sum   int
		count int
	}
	byDay := make(map[string]*acc)
	for _, r := range results {
		day := r.At.UTC().Format("2006-01-02")
		a := byDay[day]
		if a == nil {
			a = &acc{}
			byDay[day] = a
		}
		a.sum += r.Score
		a.count++
	}

	points := make([]model.TimelinePoint, 0, len(byDay))
	for day, a := range byDay {
		points = append(points, model.TimelinePoint{
			Date:         day,
			AverageScore: float64(a.sum) / float64(a.count),
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}

var difficultyLabels = [5]string{"Very Easy", "Easy", "Medium", "Hard", "Very Hard"}

// DifficultyLabel maps a numeric 1-5 difficulty, or a free-text label
// (case-insensitive), onto the fixed label set. Anything unmapped defaults
// to Medium rather than being dropped.
func DifficultyLabel(difficulty int, text string) string {
	if difficulty >= 1 && difficulty <= 5 {
		return difficultyLabels[difficulty-1]
	}
	text = strings.TrimSpace(text)
	for _, label := range difficultyLabels {
		if strings.EqualFold(text, label) {
			return label
		}
	}
	return "Medium"
}

// DifficultyBreakdown buckets items into the fixed five-label set. Every
// label is emitted, in order, with Accuracy 0 when empty.
func DifficultyBreakdown(items []AnswerRecord) []model.DifficultyBucket {
	totals := make(map[string]*model.DifficultyBucket, len(difficultyLabels))
	for _, label := range difficultyLabels {
		totals[label] = &model.DifficultyBucket{Label: label}
	}
	for _, item := range items {
		bucket := totals[DifficultyLabel(item.Difficulty, item.DifficultyLabel)]
		bucket.Total++
		if item.Correct {
			bucket.Correct++
		}
	}

	out := make([]model.DifficultyBucket, 0, len(difficultyLabels))
	for _, label := range difficultyLabels {
		bucket := totals[label]
		bucket.Accuracy = ScorePercent(bucket.Correct, bucket.Total)
		out = append(out, *bucket)
	}
	return out
}

// TopicBreakdown groups items by topic, blank topics under "Uncategorized",
// and sorts ascending by accuracy so the weakest topics surface first.
func TopicBreakdown(items []AnswerRecord) []model.TopicStat {
	type acc struct {
		total   int
		correct int
		spentMs int64
	}
	byTopic := make(map[string]*acc)
	for _, item := range items {
		topic := strings.TrimSpace(item.Topic)
		if topic == "" {
			topic = "Uncategorized"
		}
		a := byTopic[topic]
		if a == nil {
			a = &acc{}
			byTopic[topic] = a
		}
		a.total++
		if item.Correct {
			a.correct++
		}
		a.spentMs += item.TimeSpentMs
	}

	stats := make([]model.TopicStat, 0, len(byTopic))
	for topic, a := range byTopic {
		stats = append(stats, model.TopicStat{
			Topic:         topic,
			Total:         a.total,
			Correct:       a.correct,
			Accuracy:      ScorePercent(a.correct, a.total),
			AvgTimeSpentS: int(math.Round(float64(a.spentMs) / float64(a.total) / 1000)),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Accuracy != stats[j].Accuracy {
			return stats[i].Accuracy < stats[j].Accuracy
		}
		return stats[i].Topic < stats[j].Topic
	})
	return stats
}

var histogramBounds = []struct {
	label string
	maxS  float64
}{
	{"<=10s", 10},
	{"10-20s", 20},
	{"20-30s", 30},
	{"30-45s", 45},
	{"45-60s", 60},
	{"60s+", math.Inf(1)},
}

// TimeSpentHistogram counts each item into exactly one fixed time bucket
// based on its time spent in seconds.
func TimeSpentHistogram(items []AnswerRecord) []model.HistogramBucket {
	counts := make([]int, len(histogramBounds))
	for _, item := range items {
		seconds := float64(item.TimeSpentMs) / 1000
		for i, bound := range histogramBounds {
			if seconds <= bound.maxS {
				counts[i]++
				break
			}
		}
	}

	out := make([]model.HistogramBucket, len(histogramBounds))
	for i, bound := range histogramBounds {
		out[i] = model.HistogramBucket{Label: bound.label, Count: counts[i]}
	}
	return out
}

// RunningAccuracy turns an ordered correctness sequence into a cumulative
// accuracy series of length max(total, len(seq)). Positions past the end of
// the sequence repeat the last computed accuracy: unanswered questions are
// not counted as wrong, they just leave the accuracy where it stands.
func RunningAccuracy(seq []bool, total int) []int {
	n := total
	if len(seq) > n {
		n = len(seq)
	}
	if n == 0 {
		return nil
	}

	out := make([]int, n)
	correct := 0
	last := 0
	for i := 0; i < n; i++ {
		if i < len(seq) {
			if seq[i] {
				correct++
			}
			last = ScorePercent(correct, i+1)
		}
		out[i] = last
	}
	return out
}
