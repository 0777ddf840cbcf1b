package app

import (
	"context"
	"sort"
	"time"

	"quiz-arena/internal/domain"
)

// Leaderboard aggregates every persisted result by participant. A limit of
// zero or less returns all entries.
func (s *QuizService) Leaderboard(ctx context.Context, limit int) (domain.Leaderboard, error) {
	records, err := s.results.ReadAll(ctx)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return BuildLeaderboard(records, limit, s.now()), nil
}

// BuildLeaderboard orders participants by total experience, then best
// percentage, then name.
func BuildLeaderboard(records []domain.ResultRecord, limit int, now time.Time) domain.Leaderboard {
	byName := make(map[string]*domain.LeaderboardEntry)
	for _, r := range records {
		entry, ok := byName[r.Participant]
		if !ok {
			entry = &domain.LeaderboardEntry{Participant: r.Participant}
			byName[r.Participant] = entry
		}
		entry.ExperiencePoints += r.ExperiencePoints
		if r.Percentage > entry.BestPercentage {
			entry.BestPercentage = r.Percentage
		}
		entry.Sessions++
	}

	entries := make([]domain.LeaderboardEntry, 0, len(byName))
	for _, entry := range byName {
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ExperiencePoints != entries[j].ExperiencePoints {
			return entries[i].ExperiencePoints > entries[j].ExperiencePoints
		}
		if entries[i].BestPercentage != entries[j].BestPercentage {
			return entries[i].BestPercentage > entries[j].BestPercentage
		}
		return entries[i].Participant < entries[j].Participant
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	return domain.Leaderboard{
		Entries:   entries,
		UpdatedAt: now,
	}
}
