package telemetry

import (
	"sync"

	evbus "github.com/asaskevich/EventBus"

	"audiopaas-server-go/internal/platform/logging"
)

// Emitter 异步事件发射器：发布方写入有界队列后立即返回，worker负责把事件
// 投递到事件总线。队列饱和时丢弃最新事件（记录警告），发布方永不阻塞。
type Emitter struct {
	bus      evbus.Bus
	logger   *logging.Logger
	workChan chan OutcomeEvent
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewEmitter 创建异步发射器
func NewEmitter(workers, queueSize int, logger *logging.Logger) *Emitter {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 1000
	}

	e := &Emitter{
		bus:      evbus.New(),
		logger:   logger,
		workChan: make(chan OutcomeEvent, queueSize),
		stopChan: make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		e.wg.Add(1)
		go e.worker()
	}
	return e
}

// Emit 发布结果事件。队列满时丢弃（drop-newest），绝不阻塞分发路径。
func (e *Emitter) Emit(event OutcomeEvent) {
	select {
	case e.workChan <- event:
	default:
		e.logger.WarnTag("遥测", "事件队列已满，丢弃 provider=%s", event.ProviderName)
	}
}

// Subscribe 订阅结果事件。处理函数在worker协程上执行。
func (e *Emitter) Subscribe(fn func(OutcomeEvent)) error {
	return e.bus.Subscribe(TopicProviderRequest, fn)
}

// Close 停止worker并等待在途事件处理完成
func (e *Emitter) Close() {
	e.stopOnce.Do(func() {
		close(e.stopChan)
	})
	e.wg.Wait()
}

func (e *Emitter) worker() {
	defer e.wg.Done()

	for {
		select {
		case <-e.stopChan:
			// 排干剩余事件后退出
			for {
				select {
				case event := <-e.workChan:
					e.publish(event)
				default:
					return
				}
			}
		case event := <-e.workChan:
			e.publish(event)
		}
	}
}

func (e *Emitter) publish(event OutcomeEvent) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.ErrorTag("遥测", "事件处理panic: %v", r)
		}
	}()
	e.bus.Publish(TopicProviderRequest, event)
}
