package controllers

import (
	"reflect"
	"testing"

	"github.com/amaumene/reelarr/internal/models"
)

// seasonRecords builds 10 episodes: 720p everywhere unless listed in lacking720,
// 1080p on the first 8 and 480p on the last 2
func seasonRecords(lacking720 ...int) []models.EpisodeStreamRecord {
	skip := make(map[int]bool)
	for _, ep := range lacking720 {
		skip[ep] = true
	}
	records := make([]models.EpisodeStreamRecord, 0, 10)
	for ep := 1; ep <= 10; ep++ {
		var res []int
		if ep <= 8 {
			res = append(res, 1080)
		}
		if !skip[ep] {
			res = append(res, 720)
		}
		if ep > 8 {
			res = append(res, 480)
		}
		records = append(records, models.EpisodeStreamRecord{EpisodeNumber: ep, Sources: sourcesAt(res...)})
	}
	return records
}

func TestReconciliationDefaultSelection(t *testing.T) {
	r := NewReconciliation(seasonRecords())

	want := []models.ResolutionAvailability{
		{ResolutionP: 1080, EpisodeCount: 8},
		{ResolutionP: 720, EpisodeCount: 10},
		{ResolutionP: 480, EpisodeCount: 2},
	}
	if got := r.Availability(); !reflect.DeepEqual(got, want) {
		t.Errorf("Availability() = %+v, want %+v", got, want)
	}

	res, ok := r.DefaultResolution()
	if !ok || res != 720 {
		t.Errorf("DefaultResolution() = %d, %v, want 720", res, ok)
	}
	if missing := r.EpisodesMissing(720); len(missing) != 0 {
		t.Errorf("Expected no episodes missing 720p, got %+v", missing)
	}

	missing := r.EpisodesMissing(1080)
	if len(missing) != 2 || missing[0].Episode != 9 || missing[1].Episode != 10 {
		t.Fatalf("Expected episodes 9 and 10 missing 1080p, got %+v", missing)
	}
	if !reflect.DeepEqual(missing[0].Alternatives, []int{720, 480}) {
		t.Errorf("Unexpected alternatives: %v", missing[0].Alternatives)
	}
}

func TestReconciliationMissingIsExactComplement(t *testing.T) {
	r := NewReconciliation(seasonRecords(3, 9))

	missing := r.EpisodesMissing(720)
	var episodes []int
	for _, m := range missing {
		episodes = append(episodes, m.Episode)
	}
	if !reflect.DeepEqual(episodes, []int{3, 9}) {
		t.Errorf("Expected episodes [3 9] missing 720p, got %v", episodes)
	}
}

func TestReconciliationTieBreaksToHigherResolution(t *testing.T) {
	r := NewReconciliation([]models.EpisodeStreamRecord{
		{EpisodeNumber: 1, Sources: sourcesAt(1080)},
		{EpisodeNumber: 2, Sources: sourcesAt(720)},
	})
	if res, _ := r.DefaultResolution(); res != 1080 {
		t.Errorf("Expected tie to resolve to 1080, got %d", res)
	}
}

func TestReconciliationWithoutSources(t *testing.T) {
	r := NewReconciliation([]models.EpisodeStreamRecord{{EpisodeNumber: 1}})
	if _, ok := r.DefaultResolution(); ok {
		t.Error("Expected no default resolution")
	}
	if missing := r.EpisodesMissing(720); len(missing) != 1 || len(missing[0].Alternatives) != 0 {
		t.Errorf("Expected the empty episode reported missing, got %+v", missing)
	}
}
