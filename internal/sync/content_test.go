// Package sync tests for the content version synchronizer.
package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/quizpath/syncengine/internal/api"
	"github.com/quizpath/syncengine/internal/apperr"
	"github.com/quizpath/syncengine/internal/models"
)

func questionSet(version string, n int) *api.QuestionSet {
	set := &api.QuestionSet{Version: version}
	for i := 0; i < n; i++ {
		set.Questions = append(set.Questions, api.QuestionPayload{
			ID:            models.NewUUID().String(),
			Category:      "geography",
			Prompt:        "Capital of somewhere?",
			Choices:       []string{"A", "B", "C", "D"},
			CorrectChoice: 1,
			Difficulty:    2,
		})
	}
	return set
}

func TestCheckForUpdateNoLocalVersion(t *testing.T) {
	repo := setupRepo(t)
	remote := newStubRemote(t)
	remote.fetchVersionFn = func(ctx context.Context) (*api.ContentVersionInfo, error) {
		return &api.ContentVersionInfo{Version: "1.0.0", TotalQuestions: 5}, nil
	}
	syncer := NewContentSyncer(repo, remote, SystemClock(), nopLogger())

	if !syncer.CheckForUpdate(context.Background()) {
		t.Error("Expected update when no local version exists")
	}
}

func TestCheckForUpdateVersionComparison(t *testing.T) {
	repo := setupRepo(t)
	remote := newStubRemote(t)

	remoteVersion := "1.2.0"
	remote.fetchVersionFn = func(ctx context.Context) (*api.ContentVersionInfo, error) {
		return &api.ContentVersionInfo{Version: remoteVersion}, nil
	}
	remote.fetchQuestionsFn = func(ctx context.Context, version string) (*api.QuestionSet, error) {
		return questionSet(version, 3), nil
	}
	syncer := NewContentSyncer(repo, remote, SystemClock(), nopLogger())

	if _, err := syncer.DownloadAndReplace(context.Background()); err != nil {
		t.Fatalf("DownloadAndReplace error: %v", err)
	}

	if syncer.CheckForUpdate(context.Background()) {
		t.Error("Expected no update when versions match")
	}

	// "1.10.0" is newer than "1.2.0" numerically even though a string
	// compare would order it lower.
	remoteVersion = "1.10.0"
	if !syncer.CheckForUpdate(context.Background()) {
		t.Error("Expected update for numerically newer version")
	}
}

func TestCheckForUpdateFailsOpen(t *testing.T) {
	repo := setupRepo(t)
	remote := newStubRemote(t)
	remote.fetchVersionFn = func(ctx context.Context) (*api.ContentVersionInfo, error) {
		return nil, apperr.New(apperr.CodeConnectivity, "connection refused")
	}
	syncer := NewContentSyncer(repo, remote, SystemClock(), nopLogger())

	if syncer.CheckForUpdate(context.Background()) {
		t.Error("Expected false when the version fetch fails")
	}
}

func TestDownloadAndReplaceInstallsSet(t *testing.T) {
	repo := setupRepo(t)
	remote := newStubRemote(t)
	clock := newManualClock(time.Unix(1700000000, 0))

	remote.fetchVersionFn = func(ctx context.Context) (*api.ContentVersionInfo, error) {
		return &api.ContentVersionInfo{Version: "2.0.0"}, nil
	}
	remote.fetchQuestionsFn = func(ctx context.Context, version string) (*api.QuestionSet, error) {
		return questionSet(version, 4), nil
	}
	syncer := NewContentSyncer(repo, remote, clock, nopLogger())

	n, err := syncer.DownloadAndReplace(context.Background())
	if err != nil {
		t.Fatalf("DownloadAndReplace error: %v", err)
	}
	if n != 4 {
		t.Errorf("Expected 4 questions installed, got %d", n)
	}

	v, err := repo.GetContentVersion()
	if err != nil {
		t.Fatalf("GetContentVersion error: %v", err)
	}
	if v == nil || v.Version != "2.0.0" {
		t.Fatalf("Expected version 2.0.0, got %+v", v)
	}
	if v.QuestionCount != 4 {
		t.Errorf("Expected question count 4, got %d", v.QuestionCount)
	}
	if v.FetchedAt != clock.Now().Unix() {
		t.Errorf("Expected fetched_at %d, got %d", clock.Now().Unix(), v.FetchedAt)
	}

	count, err := repo.CountQuestions()
	if err != nil {
		t.Fatalf("CountQuestions error: %v", err)
	}
	if count != 4 {
		t.Errorf("Expected 4 questions stored, got %d", count)
	}
}

func TestDownloadAndReplaceFailureKeepsOldSet(t *testing.T) {
	repo := setupRepo(t)
	remote := newStubRemote(t)
	remote.fetchVersionFn = func(ctx context.Context) (*api.ContentVersionInfo, error) {
		return &api.ContentVersionInfo{Version: "1.0.0"}, nil
	}
	remote.fetchQuestionsFn = func(ctx context.Context, version string) (*api.QuestionSet, error) {
		return questionSet(version, 3), nil
	}
	syncer := NewContentSyncer(repo, remote, SystemClock(), nopLogger())

	if _, err := syncer.DownloadAndReplace(context.Background()); err != nil {
		t.Fatalf("DownloadAndReplace error: %v", err)
	}

	// Second update fails while fetching the question set. The
	// installed set and version must be untouched.
	remote.fetchVersionFn = func(ctx context.Context) (*api.ContentVersionInfo, error) {
		return &api.ContentVersionInfo{Version: "2.0.0"}, nil
	}
	remote.fetchQuestionsFn = func(ctx context.Context, version string) (*api.QuestionSet, error) {
		return nil, apperr.New(apperr.CodeConnectivity, "timeout")
	}

	if _, err := syncer.DownloadAndReplace(context.Background()); err == nil {
		t.Fatal("Expected DownloadAndReplace to fail")
	}

	v, err := repo.GetContentVersion()
	if err != nil {
		t.Fatalf("GetContentVersion error: %v", err)
	}
	if v == nil || v.Version != "1.0.0" {
		t.Errorf("Expected version 1.0.0 to survive, got %+v", v)
	}
	count, _ := repo.CountQuestions()
	if count != 3 {
		t.Errorf("Expected 3 questions to survive, got %d", count)
	}
}

func TestInitialLoadBlocksWhenEmpty(t *testing.T) {
	repo := setupRepo(t)
	remote := newStubRemote(t)
	remote.fetchVersionFn = func(ctx context.Context) (*api.ContentVersionInfo, error) {
		return &api.ContentVersionInfo{Version: "1.0.0"}, nil
	}
	remote.fetchQuestionsFn = func(ctx context.Context, version string) (*api.QuestionSet, error) {
		return questionSet(version, 2), nil
	}
	syncer := NewContentSyncer(repo, remote, SystemClock(), nopLogger())

	if err := syncer.InitialLoad(context.Background()); err != nil {
		t.Fatalf("InitialLoad error: %v", err)
	}
	count, _ := repo.CountQuestions()
	if count != 2 {
		t.Errorf("Expected 2 questions after initial load, got %d", count)
	}
}

func TestInitialLoadEmptyFailureIsExhaustion(t *testing.T) {
	repo := setupRepo(t)
	remote := newStubRemote(t)
	remote.fetchVersionFn = func(ctx context.Context) (*api.ContentVersionInfo, error) {
		return nil, apperr.New(apperr.CodeConnectivity, "no route to host")
	}
	syncer := NewContentSyncer(repo, remote, SystemClock(), nopLogger())

	err := syncer.InitialLoad(context.Background())
	if err == nil {
		t.Fatal("Expected InitialLoad to fail with no local content")
	}
	if !apperr.HasCode(err, apperr.CodeExhaustion) {
		t.Errorf("Expected exhaustion code, got %v", apperr.CodeOf(err))
	}
	// The connectivity cause stays on the chain.
	var e *apperr.Error
	if !errors.As(err, &e) {
		t.Fatal("Expected an apperr.Error")
	}
}
