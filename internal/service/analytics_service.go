package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/examgate/examgate/internal/model"
	"github.com/examgate/examgate/internal/repository"
	"github.com/rs/zerolog/log"
)

// AnalyticsService builds the dashboard overview. The preferred source is
// the candidate's raw attempt records aggregated locally; if the raw fetch
// fails it degrades to the backend's precomputed overview, and if that also
// fails it aggregates the local journal. Only when all three sources fail
// does the query return an error.
type AnalyticsService interface {
	Overview(ctx context.Context, filter repository.OverviewFilter) (*model.AnalyticsOverview, error)
}

type analyticsService struct {
	attemptRepo   repository.AttemptRepository
	questionRepo  repository.QuestionRepository
	analyticsRepo repository.AnalyticsRepository
	journal       repository.JournalRepository
}

func NewAnalyticsService(
	attemptRepo repository.AttemptRepository,
	questionRepo repository.QuestionRepository,
	analyticsRepo repository.AnalyticsRepository,
	journal repository.JournalRepository,
) AnalyticsService {
	return &analyticsService{
		attemptRepo:   attemptRepo,
		questionRepo:  questionRepo,
		analyticsRepo: analyticsRepo,
		journal:       journal,
	}
}

func (s *analyticsService) Overview(ctx context.Context, filter repository.OverviewFilter) (*model.AnalyticsOverview, error) {
	overview, rawErr := s.fromRawRecords(ctx, filter)
	if rawErr == nil {
		s.fillQuestionCount(ctx, overview, filter)
		return overview, nil
	}
	log.Warn().Err(rawErr).Msg("Raw record aggregation failed, trying remote overview")

	overview, remoteErr := s.analyticsRepo.RemoteOverview(ctx, filter)
	if remoteErr == nil {
		return overview, nil
	}
	log.Warn().Err(remoteErr).Msg("Remote overview failed, falling back to local journal")

	overview, journalErr := s.fromJournal(filter)
	if journalErr != nil {
		return nil, fmt.Errorf("all analytics sources failed: raw=%v remote=%v journal=%v", rawErr, remoteErr, journalErr)
	}
	s.fillQuestionCount(ctx, overview, filter)
	return overview, nil
}

// fromRawRecords aggregates the candidate's finished attempts and their
// recorded items. Attempts that do not embed their items get a per-attempt
// item fetch; a failed item fetch degrades that attempt to its result alone
// rather than failing the whole query.
func (s *analyticsService) fromRawRecords(ctx context.Context, filter repository.OverviewFilter) (*model.AnalyticsOverview, error) {
	attempts, err := s.attemptRepo.FindMine(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching attempts: %w", err)
	}

	var results []ScoredResult
	var records []AnswerRecord
	candidates := make(map[string]struct{})

	for _, attempt := range attempts {
		if filter.Candidate != "" && attempt.Candidate != filter.Candidate {
			continue
		}
		if attempt.FinishedAt == nil {
			continue
		}
		candidates[attempt.Candidate] = struct{}{}

		score := 0
		if attempt.Score != nil {
			score = *attempt.Score
		}
		results = append(results, ScoredResult{
			Candidate: attempt.Candidate,
			Score:     score,
			At:        *attempt.FinishedAt,
		})

		items := attempt.Items
		if len(items) == 0 {
			fetched, itemsErr := s.attemptRepo.Items(ctx, attempt.ID, 0, 0)
			if itemsErr != nil {
				log.Warn().Err(itemsErr).Int64("attemptID", attempt.ID).Msg("Item fetch failed, attempt counted by score only")
				continue
			}
			items = fetched
		}
		for _, item := range items {
			records = append(records, answerRecord(item.Topic, item.Difficulty, item.Correct, item.TimeSpentMs))
		}
	}

	records = filterRecords(records, filter)
	return buildOverview(len(candidates), results, records), nil
}

func (s *analyticsService) fromJournal(filter repository.OverviewFilter) (*model.AnalyticsOverview, error) {
	if s.journal == nil {
		return nil, fmt.Errorf("no journal configured")
	}
	items, err := s.journal.FindItems(filter.Candidate, filter.Topic, filter.Difficulty)
	if err != nil {
		return nil, fmt.Errorf("reading journal items: %w", err)
	}
	completions, err := s.journal.FindCompletions(filter.Candidate)
	if err != nil {
		return nil, fmt.Errorf("reading journal completions: %w", err)
	}

	var results []ScoredResult
	candidates := make(map[string]struct{})
	for _, c := range completions {
		candidates[c.Candidate] = struct{}{}
		results = append(results, ScoredResult{Candidate: c.Candidate, Score: c.Score, At: c.CompletedAt})
	}

	records := make([]AnswerRecord, 0, len(items))
	for _, item := range items {
		candidates[item.Candidate] = struct{}{}
		records = append(records, answerRecord(item.Topic, item.Difficulty, item.Correct, item.TimeSpentMs))
	}
	return buildOverview(len(candidates), results, records), nil
}

// fillQuestionCount is an independent KPI fetch; its failure degrades the
// count to zero instead of failing the overview.
func (s *analyticsService) fillQuestionCount(ctx context.Context, overview *model.AnalyticsOverview, filter repository.OverviewFilter) {
	questions, err := s.questionRepo.FindAll(ctx, repository.QuestionFilter{Topic: filter.Topic})
	if err != nil {
		log.Warn().Err(err).Msg("Question count fetch failed")
		return
	}
	overview.QuestionCount = len(questions)
}

func answerRecord(topic string, difficulty int, correct bool, timeSpentMs int64) AnswerRecord {
	return AnswerRecord{
		Topic:       topic,
		Difficulty:  difficulty,
		Correct:     correct,
		TimeSpentMs: timeSpentMs,
	}
}

func filterRecords(records []AnswerRecord, filter repository.OverviewFilter) []AnswerRecord {
	if filter.Topic == "" && filter.Difficulty == 0 {
		return records
	}
	out := records[:0]
	for _, r := range records {
		if filter.Topic != "" && !strings.EqualFold(r.Topic, filter.Topic) {
			continue
		}
		if filter.Difficulty > 0 && r.Difficulty != filter.Difficulty {
			continue
		}
		out = append(out, r)
	}
	return out
}

func buildOverview(candidateCount int, results []ScoredResult, records []AnswerRecord) *model.AnalyticsOverview {
	scoreSum := 0
	for _, r := range results {
		scoreSum += r.Score
	}
	avgScore := 0
	if len(results) > 0 {
		avgScore = int(math.Round(float64(scoreSum) / float64(len(results))))
	}

	return &model.AnalyticsOverview{
		CandidateCount:       candidateCount,
		ExamCount:            len(results),
		AverageScore:         avgScore,
		PerformanceOverTime:  Timeline(results),
		AccuracyByDifficulty: DifficultyBreakdown(records),
		Topics:               TopicBreakdown(records),
		TimeSpentHistogram:   TimeSpentHistogram(records),
	}
}
