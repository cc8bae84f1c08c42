package data

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gorm.io/gorm"
)

func TestFindBan(t *testing.T) {
	testBan := &Ban{Name: "cheatson", IPAddr: "10.0.0.5", Reason: "timewarp.clockdesync"}

	tests := []struct {
		name     string
		seedData func(db *gorm.DB)
		byName   string
		byIP     string
		want     *Ban
	}{
		{
			name:     "no ban exists",
			seedData: func(db *gorm.DB) {},
			byName:   "cheatson",
			byIP:     "10.0.0.5",
			want:     nil,
		},
		{
			name: "banned by name",
			seedData: func(db *gorm.DB) {
				if err := db.Create(testBan).Error; err != nil {
					t.Fatalf("error creating ban: %v", err)
				}
			},
			byName: "cheatson",
			byIP:   "192.168.0.1",
			want:   testBan,
		},
		{
			name: "banned by address",
			seedData: func(db *gorm.DB) {
				if err := db.Create(testBan).Error; err != nil {
					t.Fatalf("error creating ban: %v", err)
				}
			},
			byName: "someoneelse",
			byIP:   "10.0.0.5",
			want:   testBan,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setUpDatabase(t)
			tt.seedData(db)

			ban, err := FindBan(db, tt.byName, tt.byIP)
			if err != nil {
				t.Fatalf("FindBan() error = %v", err)
			}

			if diff := cmp.Diff(tt.want, ban, cmpopts.IgnoreFields(Ban{}, "Model")); diff != "" {
				t.Errorf("ban did not match expected; diff:\n%s", diff)
			}
		})
	}
}

func TestCountViolations(t *testing.T) {
	db := setUpDatabase(t)

	for _, v := range []*Violation{
		{Name: "cheatson", Field: "level", Reason: "level was 501 allowed was 1..500"},
		{Name: "cheatson", Field: "combo_timeout", Reason: "timewarp.clockdesync"},
		{Name: "honest", Field: "health", Reason: "health was NaN"},
	} {
		if err := RecordViolation(db, v); err != nil {
			t.Fatalf("RecordViolation() error = %v", err)
		}
	}

	count, err := CountViolations(db, "cheatson")
	if err != nil {
		t.Fatalf("CountViolations() error = %v", err)
	}
	if count != 2 {
		t.Errorf("CountViolations() want = 2, got = %d", count)
	}
}
