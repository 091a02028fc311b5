package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeMatchScore(t *testing.T) {
	job := JobPosting{
		Skills: []string{"Node.js", "GraphQL", "AWS", "Microservices"},
	}
	profile := UserProfile{
		Skills: []string{"node.js", "aws", "Kubernetes"},
	}

	match := ComputeMatchScore(job, profile)

	assert.Equal(t, 50, match.Score)
	assert.Equal(t, []string{"Node.js", "AWS"}, match.MatchedSkills)
}

func TestComputeMatchScore_EmptyInputs(t *testing.T) {
	match := ComputeMatchScore(JobPosting{}, UserProfile{Skills: []string{"Go"}})
	assert.Equal(t, 0, match.Score)
	assert.Empty(t, match.MatchedSkills)

	match = ComputeMatchScore(JobPosting{Skills: []string{"Go"}}, UserProfile{})
	assert.Equal(t, 0, match.Score)
}

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, StatusApplied, NormalizeStatus("Applied"))
	assert.Equal(t, StatusHR, NormalizeStatus(" hr "))
	assert.Equal(t, StatusFound, NormalizeStatus(""))
	assert.Equal(t, StatusFound, NormalizeStatus("interviewing"))
}

func TestNewUserProfile_Defaults(t *testing.T) {
	p := NewUserProfile(UserProfile{})

	assert.Equal(t, "any", p.RemotePreference)
	assert.Equal(t, 10, p.DailyCap)
	assert.Equal(t, "TRY", p.SalaryRange.Currency)
	assert.Len(t, p.Languages, 1)
	assert.NotNil(t, p.Skills)
	assert.False(t, p.CreatedAt.IsZero())
}

func TestNewUserProfile_KeepsExplicitValues(t *testing.T) {
	p := NewUserProfile(UserProfile{
		Name:     "Deniz",
		DailyCap: 3,
		Skills:   []string{"Go"},
	})

	assert.Equal(t, "Deniz", p.Name)
	assert.Equal(t, 3, p.DailyCap)
	assert.Equal(t, []string{"Go"}, p.Skills)
}
