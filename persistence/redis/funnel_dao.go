package redis

import (
	"context"

	rd "github.com/go-redis/redis/v9"
	"github.com/mohitkumar/funnel/logger"
	"github.com/mohitkumar/funnel/model"
	"github.com/mohitkumar/funnel/persistence"
	"github.com/mohitkumar/funnel/util"
	"go.uber.org/zap"
)

const FUNNEL_KEY string = "FUNNEL"
const STEP_KEY string = "STEP"
const IMAGE_KEY string = "IMAGE"
const JOB_KEY string = "JOB"

var _ persistence.Storage = new(redisFunnelStorage)

type redisFunnelStorage struct {
	baseDao
	funnelEncDec util.EncoderDecoder[model.Funnel]
	stepEncDec   util.EncoderDecoder[model.FunnelStep]
	imageEncDec  util.EncoderDecoder[model.FunnelImage]
	jobEncDec    util.EncoderDecoder[model.Job]
}

func NewRedisFunnelStorage(conf Config, funnelEncDec util.EncoderDecoder[model.Funnel],
	stepEncDec util.EncoderDecoder[model.FunnelStep], imageEncDec util.EncoderDecoder[model.FunnelImage],
	jobEncDec util.EncoderDecoder[model.Job]) *redisFunnelStorage {
	return &redisFunnelStorage{
		baseDao:      *newBaseDao(conf),
		funnelEncDec: funnelEncDec,
		stepEncDec:   stepEncDec,
		imageEncDec:  imageEncDec,
		jobEncDec:    jobEncDec,
	}
}

// funnels live in one hash keyed by funnel id; steps, images and jobs live
// in one hash per funnel so whole funnel deletion is a handful of DELs.

func (r *redisFunnelStorage) SaveFunnel(ctx context.Context, funnel *model.Funnel) error {
	key := r.getNamespaceKey(FUNNEL_KEY)
	err := r.redisClient.Watch(ctx, func(tx *rd.Tx) error {
		stored, err := tx.HGet(ctx, key, funnel.Id).Result()
		if err != nil && err != rd.Nil {
			return err
		}
		if err != rd.Nil {
			current, derr := r.funnelEncDec.Decode([]byte(stored))
			if derr != nil {
				return derr
			}
			if current.Revision != funnel.Revision {
				return persistence.VersionConflictError{FunnelId: funnel.Id}
			}
		} else if funnel.Revision != 0 {
			return persistence.VersionConflictError{FunnelId: funnel.Id}
		}
		funnel.Revision++
		data, err := r.funnelEncDec.Encode(*funnel)
		if err != nil {
			funnel.Revision--
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe rd.Pipeliner) error {
			pipe.HSet(ctx, key, funnel.Id, string(data))
			return nil
		})
		if err != nil {
			funnel.Revision--
		}
		return err
	}, key)
	if err != nil {
		if _, ok := err.(persistence.VersionConflictError); ok {
			return err
		}
		logger.Error("error in saving funnel", zap.String("funnelId", funnel.Id), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (r *redisFunnelStorage) LoadFunnel(ctx context.Context, funnelId string) (*model.Funnel, error) {
	key := r.getNamespaceKey(FUNNEL_KEY)
	data, err := r.redisClient.HGet(ctx, key, funnelId).Result()
	if err == rd.Nil {
		return nil, nil
	}
	if err != nil {
		logger.Error("error in getting funnel", zap.String("funnelId", funnelId), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return r.funnelEncDec.Decode([]byte(data))
}

func (r *redisFunnelStorage) ListFunnels(ctx context.Context) ([]model.Funnel, error) {
	key := r.getNamespaceKey(FUNNEL_KEY)
	entries, err := r.redisClient.HGetAll(ctx, key).Result()
	if err != nil {
		logger.Error("error in listing funnels", zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	funnels := make([]model.Funnel, 0, len(entries))
	for _, data := range entries {
		funnel, err := r.funnelEncDec.Decode([]byte(data))
		if err != nil {
			return nil, err
		}
		funnels = append(funnels, *funnel)
	}
	return funnels, nil
}

func (r *redisFunnelStorage) DeleteFunnel(ctx context.Context, funnelId string) error {
	_, err := r.redisClient.TxPipelined(ctx, func(pipe rd.Pipeliner) error {
		pipe.HDel(ctx, r.getNamespaceKey(FUNNEL_KEY), funnelId)
		pipe.Del(ctx, r.getNamespaceKey(STEP_KEY, funnelId))
		pipe.Del(ctx, r.getNamespaceKey(IMAGE_KEY, funnelId))
		pipe.Del(ctx, r.getNamespaceKey(JOB_KEY, funnelId))
		return nil
	})
	if err != nil {
		logger.Error("error in deleting funnel", zap.String("funnelId", funnelId), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (r *redisFunnelStorage) SaveStep(ctx context.Context, step *model.FunnelStep) error {
	key := r.getNamespaceKey(STEP_KEY, step.FunnelId)
	data, err := r.stepEncDec.Encode(*step)
	if err != nil {
		return err
	}
	if err := r.redisClient.HSet(ctx, key, step.Id, string(data)).Err(); err != nil {
		logger.Error("error in saving step", zap.String("stepId", step.Id), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (r *redisFunnelStorage) LoadStep(ctx context.Context, funnelId string, stepId string) (*model.FunnelStep, error) {
	key := r.getNamespaceKey(STEP_KEY, funnelId)
	data, err := r.redisClient.HGet(ctx, key, stepId).Result()
	if err == rd.Nil {
		return nil, nil
	}
	if err != nil {
		logger.Error("error in getting step", zap.String("stepId", stepId), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return r.stepEncDec.Decode([]byte(data))
}

func (r *redisFunnelStorage) LoadSteps(ctx context.Context, funnelId string) ([]model.FunnelStep, error) {
	key := r.getNamespaceKey(STEP_KEY, funnelId)
	entries, err := r.redisClient.HGetAll(ctx, key).Result()
	if err != nil {
		logger.Error("error in listing steps", zap.String("funnelId", funnelId), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	steps := make([]model.FunnelStep, 0, len(entries))
	for _, data := range entries {
		step, err := r.stepEncDec.Decode([]byte(data))
		if err != nil {
			return nil, err
		}
		steps = append(steps, *step)
	}
	return steps, nil
}

func (r *redisFunnelStorage) SaveImage(ctx context.Context, image *model.FunnelImage) error {
	key := r.getNamespaceKey(IMAGE_KEY, image.FunnelId)
	data, err := r.imageEncDec.Encode(*image)
	if err != nil {
		return err
	}
	if err := r.redisClient.HSet(ctx, key, image.Id, string(data)).Err(); err != nil {
		logger.Error("error in saving image", zap.String("imageId", image.Id), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (r *redisFunnelStorage) LoadImage(ctx context.Context, funnelId string, imageId string) (*model.FunnelImage, error) {
	key := r.getNamespaceKey(IMAGE_KEY, funnelId)
	data, err := r.redisClient.HGet(ctx, key, imageId).Result()
	if err == rd.Nil {
		return nil, nil
	}
	if err != nil {
		logger.Error("error in getting image", zap.String("imageId", imageId), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return r.imageEncDec.Decode([]byte(data))
}

func (r *redisFunnelStorage) LoadImages(ctx context.Context, funnelId string, stepId string) ([]model.FunnelImage, error) {
	key := r.getNamespaceKey(IMAGE_KEY, funnelId)
	entries, err := r.redisClient.HGetAll(ctx, key).Result()
	if err != nil {
		logger.Error("error in listing images", zap.String("funnelId", funnelId), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	images := make([]model.FunnelImage, 0, len(entries))
	for _, data := range entries {
		image, err := r.imageEncDec.Decode([]byte(data))
		if err != nil {
			return nil, err
		}
		if stepId != "" && image.StepId != stepId {
			continue
		}
		images = append(images, *image)
	}
	return images, nil
}

func (r *redisFunnelStorage) SaveJob(ctx context.Context, job *model.Job) error {
	key := r.getNamespaceKey(JOB_KEY, job.FunnelId)
	data, err := r.jobEncDec.Encode(*job)
	if err != nil {
		return err
	}
	if err := r.redisClient.HSet(ctx, key, job.Id, string(data)).Err(); err != nil {
		logger.Error("error in saving job", zap.String("jobId", job.Id), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (r *redisFunnelStorage) LoadJobs(ctx context.Context, funnelId string) ([]model.Job, error) {
	key := r.getNamespaceKey(JOB_KEY, funnelId)
	entries, err := r.redisClient.HGetAll(ctx, key).Result()
	if err != nil {
		logger.Error("error in listing jobs", zap.String("funnelId", funnelId), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	jobs := make([]model.Job, 0, len(entries))
	for _, data := range entries {
		job, err := r.jobEncDec.Decode([]byte(data))
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, nil
}

func (r *redisFunnelStorage) SaveGeneration(ctx context.Context, funnel *model.Funnel, step *model.FunnelStep,
	images []model.FunnelImage, jobs []model.Job) error {
	funnelKey := r.getNamespaceKey(FUNNEL_KEY)
	err := r.redisClient.Watch(ctx, func(tx *rd.Tx) error {
		stored, err := tx.HGet(ctx, funnelKey, funnel.Id).Result()
		if err != nil && err != rd.Nil {
			return err
		}
		if err != rd.Nil {
			current, derr := r.funnelEncDec.Decode([]byte(stored))
			if derr != nil {
				return derr
			}
			if current.Revision != funnel.Revision {
				return persistence.VersionConflictError{FunnelId: funnel.Id}
			}
		} else if funnel.Revision != 0 {
			return persistence.VersionConflictError{FunnelId: funnel.Id}
		}
		funnel.Revision++
		funnelData, err := r.funnelEncDec.Encode(*funnel)
		if err != nil {
			funnel.Revision--
			return err
		}
		stepData, err := r.stepEncDec.Encode(*step)
		if err != nil {
			funnel.Revision--
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe rd.Pipeliner) error {
			pipe.HSet(ctx, funnelKey, funnel.Id, string(funnelData))
			pipe.HSet(ctx, r.getNamespaceKey(STEP_KEY, funnel.Id), step.Id, string(stepData))
			for _, image := range images {
				data, err := r.imageEncDec.Encode(image)
				if err != nil {
					return err
				}
				pipe.HSet(ctx, r.getNamespaceKey(IMAGE_KEY, funnel.Id), image.Id, string(data))
			}
			for _, job := range jobs {
				data, err := r.jobEncDec.Encode(job)
				if err != nil {
					return err
				}
				pipe.HSet(ctx, r.getNamespaceKey(JOB_KEY, funnel.Id), job.Id, string(data))
			}
			return nil
		})
		if err != nil {
			funnel.Revision--
		}
		return err
	}, funnelKey)
	if err != nil {
		if _, ok := err.(persistence.VersionConflictError); ok {
			return err
		}
		logger.Error("error in saving generation", zap.String("funnelId", funnel.Id),
			zap.String("stepId", step.Id), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}
