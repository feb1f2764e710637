package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/lwai/timeback-onboarding/internal/entity"
)

type MockArtifactStore struct {
	mock.Mock
}

func (m *MockArtifactStore) CopyTemplate(ctx context.Context, templateRef, destFolder, newName string) (ArtifactRef, error) {
	args := m.Called(ctx, templateRef, destFolder, newName)
	return args.Get(0).(ArtifactRef), args.Error(1)
}

func (m *MockArtifactStore) WriteCells(ctx context.Context, ref ArtifactRef, updates []CellUpdate) error {
	args := m.Called(ctx, ref, updates)
	return args.Error(0)
}

func (m *MockArtifactStore) GrantAccess(ctx context.Context, ref ArtifactRef, email, role string) error {
	args := m.Called(ctx, ref, email, role)
	return args.Error(0)
}

func trackerTemplates() entity.TrackerCatalog {
	return entity.TrackerCatalog{
		{App: "MathApp", Segment: "math-accel", SheetRef: "template-1"},
	}
}

func TestProvision_Success(t *testing.T) {
	lead := eligibleLead()
	ref := ArtifactRef{ID: "copy-1", Link: "https://docs.google.com/spreadsheets/d/copy-1"}

	store := new(MockArtifactStore)
	store.On("CopyTemplate", mock.Anything, "template-1", "folder-1", "ada@example.com").Return(ref, nil)
	store.On("WriteCells", mock.Anything, ref, []CellUpdate{
		{Cell: "B2", Value: "ada@example.com"},
		{Cell: "B3", Value: "2026-03-09"},
	}).Return(nil)
	store.On("GrantAccess", mock.Anything, ref, "ada@example.com", "writer").Return(nil)

	result := NewProvisioner(store, "folder-1", nil).Provision(context.Background(), lead, trackerTemplates())

	assert.True(t, result.OK())
	assert.Equal(t, ref.Link, result.Link)
	assert.Equal(t, "math-accel", result.Segment)
	assert.Equal(t, "Grade 3", result.GradeLabel)
	store.AssertExpectations(t)
}

func TestProvision_NoTemplate(t *testing.T) {
	lead := eligibleLead()
	store := new(MockArtifactStore)

	result := NewProvisioner(store, "folder-1", nil).Provision(context.Background(), lead, nil)

	assert.False(t, result.OK())
	assert.Contains(t, result.Err, "no tracker template")
	store.AssertNotCalled(t, "CopyTemplate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProvision_CopyFailure(t *testing.T) {
	lead := eligibleLead()

	store := new(MockArtifactStore)
	store.On("CopyTemplate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(ArtifactRef{}, errors.New("quota exceeded"))

	result := NewProvisioner(store, "folder-1", nil).Provision(context.Background(), lead, trackerTemplates())

	assert.False(t, result.OK())
	assert.Contains(t, result.Err, "quota exceeded")
}

func TestProvision_ShareFailureIsBestEffort(t *testing.T) {
	lead := eligibleLead()
	ref := ArtifactRef{ID: "copy-1", Link: "link-1"}

	store := new(MockArtifactStore)
	store.On("CopyTemplate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(ref, nil)
	store.On("WriteCells", mock.Anything, ref, mock.Anything).Return(nil)
	store.On("GrantAccess", mock.Anything, ref, mock.Anything, mock.Anything).
		Return(errors.New("permission denied"))

	result := NewProvisioner(store, "folder-1", nil).Provision(context.Background(), lead, trackerTemplates())

	assert.True(t, result.OK())
	assert.Equal(t, "link-1", result.Link)
}
