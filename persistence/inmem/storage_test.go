package inmem

import (
	"context"
	"testing"

	"github.com/mohitkumar/funnel/model"
	"github.com/mohitkumar/funnel/persistence"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStorage(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T, s *InMemoryStorage){
		"test revision check on save":    testRevisionCheck,
		"test save generation is a unit": testSaveGenerationUnit,
		"test delete cascades":           testDeleteCascades,
		"test load images by step":       testLoadImagesByStep,
		"test records are detached":      testRecordsAreDetached,
	} {
		t.Run(scenario, func(t *testing.T) {
			fn(t, NewInMemoryStorage())
		})
	}
}

func testRevisionCheck(t *testing.T, s *InMemoryStorage) {
	ctx := context.Background()
	funnel := &model.Funnel{Id: "f-1", Name: "one"}
	require.NoError(t, s.SaveFunnel(ctx, funnel))
	require.Equal(t, int64(1), funnel.Revision)

	// a second writer holding the old revision loses
	stale := &model.Funnel{Id: "f-1", Name: "two", Revision: 0}
	err := s.SaveFunnel(ctx, stale)
	require.IsType(t, persistence.VersionConflictError{}, err)

	require.NoError(t, s.SaveFunnel(ctx, funnel))
	require.Equal(t, int64(2), funnel.Revision)

	// creating over an existing id with a non zero revision also loses
	fresh := &model.Funnel{Id: "f-2", Revision: 5}
	err = s.SaveFunnel(ctx, fresh)
	require.IsType(t, persistence.VersionConflictError{}, err)
}

func testSaveGenerationUnit(t *testing.T, s *InMemoryStorage) {
	ctx := context.Background()
	funnel := &model.Funnel{Id: "f-1"}
	require.NoError(t, s.SaveFunnel(ctx, funnel))

	step := &model.FunnelStep{Id: "s-1", FunnelId: "f-1", Status: model.STEP_SELECTING}
	images := []model.FunnelImage{{Id: "i-1", FunnelId: "f-1", StepId: "s-1"}}
	jobs := []model.Job{{Id: "j-1", FunnelId: "f-1", StepId: "s-1"}}
	require.NoError(t, s.SaveGeneration(ctx, funnel, step, images, jobs))

	loadedStep, err := s.LoadStep(ctx, "f-1", "s-1")
	require.NoError(t, err)
	require.NotNil(t, loadedStep)
	loadedImages, err := s.LoadImages(ctx, "f-1", "")
	require.NoError(t, err)
	require.Len(t, loadedImages, 1)
	loadedJobs, err := s.LoadJobs(ctx, "f-1")
	require.NoError(t, err)
	require.Len(t, loadedJobs, 1)

	// a stale funnel revision rejects the whole unit
	stale := &model.Funnel{Id: "f-1", Revision: 0}
	err = s.SaveGeneration(ctx, stale, &model.FunnelStep{Id: "s-2", FunnelId: "f-1"}, nil, nil)
	require.IsType(t, persistence.VersionConflictError{}, err)
	missing, err := s.LoadStep(ctx, "f-1", "s-2")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func testDeleteCascades(t *testing.T, s *InMemoryStorage) {
	ctx := context.Background()
	funnel := &model.Funnel{Id: "f-1"}
	require.NoError(t, s.SaveFunnel(ctx, funnel))
	require.NoError(t, s.SaveStep(ctx, &model.FunnelStep{Id: "s-1", FunnelId: "f-1"}))
	require.NoError(t, s.SaveImage(ctx, &model.FunnelImage{Id: "i-1", FunnelId: "f-1", StepId: "s-1"}))
	require.NoError(t, s.SaveJob(ctx, &model.Job{Id: "j-1", FunnelId: "f-1", StepId: "s-1"}))

	require.NoError(t, s.DeleteFunnel(ctx, "f-1"))

	loaded, err := s.LoadFunnel(ctx, "f-1")
	require.NoError(t, err)
	require.Nil(t, loaded)
	steps, err := s.LoadSteps(ctx, "f-1")
	require.NoError(t, err)
	require.Empty(t, steps)
	images, err := s.LoadImages(ctx, "f-1", "")
	require.NoError(t, err)
	require.Empty(t, images)
	jobs, err := s.LoadJobs(ctx, "f-1")
	require.NoError(t, err)
	require.Empty(t, jobs)
}

func testRecordsAreDetached(t *testing.T, s *InMemoryStorage) {
	ctx := context.Background()
	funnel := &model.Funnel{
		Id:     "f-1",
		Config: model.FunnelConfig{BaseParameters: map[string]any{"steps": 20}},
	}
	require.NoError(t, s.SaveFunnel(ctx, funnel))

	// mutating the saved object after the fact must not reach the store
	funnel.Config.BaseParameters["steps"] = 99
	loaded, err := s.LoadFunnel(ctx, "f-1")
	require.NoError(t, err)
	require.Equal(t, 20, loaded.Config.BaseParameters["steps"])

	// neither must mutating a loaded copy
	loaded.Config.BaseParameters["cfg"] = 7
	again, err := s.LoadFunnel(ctx, "f-1")
	require.NoError(t, err)
	require.NotContains(t, again.Config.BaseParameters, "cfg")

	image := &model.FunnelImage{Id: "i-1", FunnelId: "f-1", StepId: "s-1",
		Parameters: map[string]any{"seed": int64(7)}}
	require.NoError(t, s.SaveImage(ctx, image))
	image.Parameters["seed"] = int64(8)
	loadedImage, err := s.LoadImage(ctx, "f-1", "i-1")
	require.NoError(t, err)
	require.Equal(t, int64(7), loadedImage.Parameters["seed"])
}

func testLoadImagesByStep(t *testing.T, s *InMemoryStorage) {
	ctx := context.Background()
	require.NoError(t, s.SaveImage(ctx, &model.FunnelImage{Id: "i-1", FunnelId: "f-1", StepId: "s-1"}))
	require.NoError(t, s.SaveImage(ctx, &model.FunnelImage{Id: "i-2", FunnelId: "f-1", StepId: "s-2"}))

	all, err := s.LoadImages(ctx, "f-1", "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	only, err := s.LoadImages(ctx, "f-1", "s-2")
	require.NoError(t, err)
	require.Len(t, only, 1)
	require.Equal(t, "i-2", only[0].Id)
}
