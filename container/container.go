package container

import (
	"github.com/mohitkumar/funnel/config"
	"github.com/mohitkumar/funnel/dispatch"
	"github.com/mohitkumar/funnel/model"
	"github.com/mohitkumar/funnel/persistence"
	"github.com/mohitkumar/funnel/persistence/inmem"
	rd "github.com/mohitkumar/funnel/persistence/redis"
	"github.com/mohitkumar/funnel/util"
)

// DIContiner builds and holds every process dependency from the Config.
// Everything downstream receives its collaborators explicitly from here,
// nothing reaches for a shared global.
type DIContiner struct {
	initialized       bool
	storage           persistence.Storage
	workflowStorage   persistence.WorkflowStorage
	dispatcher        dispatch.Dispatcher
	FunnelEncDec      util.EncoderDecoder[model.Funnel]
	StepEncDec        util.EncoderDecoder[model.FunnelStep]
	ImageEncDec       util.EncoderDecoder[model.FunnelImage]
	JobEncDec         util.EncoderDecoder[model.Job]
	WorkflowDefEncDec util.EncoderDecoder[model.WorkflowDef]
}

func (d *DIContiner) setInitialized() {
	d.initialized = true
}

func NewDiContainer() *DIContiner {
	return &DIContiner{
		initialized: false,
	}
}

func (d *DIContiner) Init(conf config.Config) {
	defer d.setInitialized()

	switch conf.EncoderDecoderType {
	default:
		d.FunnelEncDec = util.NewJsonEncoderDecoder[model.Funnel]()
		d.StepEncDec = util.NewJsonEncoderDecoder[model.FunnelStep]()
		d.ImageEncDec = util.NewJsonEncoderDecoder[model.FunnelImage]()
		d.JobEncDec = util.NewJsonEncoderDecoder[model.Job]()
		d.WorkflowDefEncDec = util.NewJsonEncoderDecoder[model.WorkflowDef]()
	}

	switch conf.StorageType {
	case config.STORAGE_TYPE_REDIS:
		rdConf := rd.Config{
			Addrs:     conf.RedisConfig.Addrs,
			Namespace: conf.RedisConfig.Namespace,
		}
		d.storage = rd.NewRedisFunnelStorage(rdConf, d.FunnelEncDec, d.StepEncDec, d.ImageEncDec, d.JobEncDec)
		d.workflowStorage = rd.NewRedisWorkflowStorage(rdConf, d.WorkflowDefEncDec)
	case config.STORAGE_TYPE_INMEM:
		d.storage = inmem.NewInMemoryStorage()
		d.workflowStorage = inmem.NewInMemoryWorkflowStorage()
	}

	renderClient := dispatch.NewHttpRenderClient(conf.RenderConfig)
	d.dispatcher = dispatch.NewRenderDispatcher(renderClient, conf.DispatchConcurrency)
}

func (d *DIContiner) GetStorage() persistence.Storage {
	if !d.initialized {
		panic("container not initalized")
	}
	return d.storage
}

func (d *DIContiner) GetWorkflowStorage() persistence.WorkflowStorage {
	if !d.initialized {
		panic("container not initalized")
	}
	return d.workflowStorage
}

func (d *DIContiner) GetDispatcher() dispatch.Dispatcher {
	if !d.initialized {
		panic("container not initalized")
	}
	return d.dispatcher
}
