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

const WORKFLOW_KEY string = "WORKFLOW"

var _ persistence.WorkflowStorage = new(redisWorkflowStorage)

type redisWorkflowStorage struct {
	baseDao
	encoderDecoder util.EncoderDecoder[model.WorkflowDef]
}

func NewRedisWorkflowStorage(conf Config, encoderDecoder util.EncoderDecoder[model.WorkflowDef]) *redisWorkflowStorage {
	return &redisWorkflowStorage{
		baseDao:        *newBaseDao(conf),
		encoderDecoder: encoderDecoder,
	}
}

func (r *redisWorkflowStorage) SaveWorkflow(ctx context.Context, wf *model.WorkflowDef) error {
	key := r.getNamespaceKey(WORKFLOW_KEY)
	data, err := r.encoderDecoder.Encode(*wf)
	if err != nil {
		return err
	}
	if err := r.redisClient.HSet(ctx, key, wf.Id, string(data)).Err(); err != nil {
		logger.Error("error in saving workflow definition", zap.String("workflowId", wf.Id), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (r *redisWorkflowStorage) GetWorkflow(ctx context.Context, id string) (*model.WorkflowDef, error) {
	key := r.getNamespaceKey(WORKFLOW_KEY)
	data, err := r.redisClient.HGet(ctx, key, id).Result()
	if err == rd.Nil {
		return nil, nil
	}
	if err != nil {
		logger.Error("error in getting workflow definition", zap.String("workflowId", id), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return r.encoderDecoder.Decode([]byte(data))
}

func (r *redisWorkflowStorage) ListWorkflows(ctx context.Context) ([]model.WorkflowDef, error) {
	key := r.getNamespaceKey(WORKFLOW_KEY)
	entries, err := r.redisClient.HGetAll(ctx, key).Result()
	if err != nil {
		logger.Error("error in listing workflow definitions", zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	defs := make([]model.WorkflowDef, 0, len(entries))
	for _, data := range entries {
		def, err := r.encoderDecoder.Decode([]byte(data))
		if err != nil {
			return nil, err
		}
		defs = append(defs, *def)
	}
	return defs, nil
}
