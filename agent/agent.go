package agent

import (
	"sync"

	"github.com/mohitkumar/funnel/config"
	"github.com/mohitkumar/funnel/container"
	"github.com/mohitkumar/funnel/logger"
	"github.com/mohitkumar/funnel/metadata"
	"github.com/mohitkumar/funnel/rest"
	"github.com/mohitkumar/funnel/service"
)

type Agent struct {
	Config          config.Config
	container       *container.DIContiner
	funnelService   *service.FunnelService
	workflowService metadata.WorkflowService
	httpServer      *rest.Server
	shutdown        bool
	shutdowns       chan struct{}
	shutdownLock    sync.Mutex
}

func New(config config.Config) (*Agent, error) {
	a := &Agent{
		Config:    config,
		shutdowns: make(chan struct{}),
	}
	setup := []func() error{
		a.setupContainer,
		a.setupServices,
		a.setupHttpServer,
	}
	for _, fn := range setup {
		if err := fn(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Agent) setupContainer() error {
	a.container = container.NewDiContainer()
	a.container.Init(a.Config)
	return nil
}

func (a *Agent) setupServices() error {
	a.workflowService = metadata.NewWorkflowService(a.container.GetWorkflowStorage())
	a.funnelService = service.NewFunnelService(a.container.GetStorage(), a.container.GetDispatcher(), a.workflowService)
	return nil
}

func (a *Agent) setupHttpServer() error {
	var err error
	a.httpServer, err = rest.NewServer(a.Config.HttpPort, a.funnelService, a.workflowService)
	if err != nil {
		return err
	}
	return nil
}

func (a *Agent) Start() error {
	go func() {
		err := a.httpServer.Start()
		if err != nil {
			_ = a.Shutdown()
			panic(err)
		}
	}()
	return nil
}

func (a *Agent) Shutdown() error {
	logger.Info("shutting down server")
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()
	if a.shutdown {
		return nil
	}
	a.shutdown = true
	close(a.shutdowns)

	shutdown := []func() error{
		a.httpServer.Stop,
	}
	for _, fn := range shutdown {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}
