package dds

// RefillLoop models the ping/pong DMA double-buffering that paces the PWM
// slices: two buffer halves per slice, chain-linked so a
// DMA-completion interrupt on one half signals the refill task that it is
// now safe to rewrite while the other half is being transferred to
// hardware. In this simulation the "ISR" is SignalBufferFree and the
// "refill task" is Run, which would occupy the synthesis core's tight
// polled loop on real hardware.
type RefillLoop struct {
	engine *Engine

	sliceA [2][]uint32
	sliceB [2][]uint32

	bufferFree chan int
	stop       chan struct{}
}

// NewRefillLoop allocates both buffer halves (BufferTicks words each, per
// slice) and marks both free, matching the engine's silent-zero boot state.
func NewRefillLoop(engine *Engine) *RefillLoop {
	l := &RefillLoop{
		engine:     engine,
		bufferFree: make(chan int, 2),
		stop:       make(chan struct{}),
	}
	for i := 0; i < 2; i++ {
		l.sliceA[i] = make([]uint32, BufferTicks)
		l.sliceB[i] = make([]uint32, BufferTicks)
		l.bufferFree <- i
	}
	return l
}

// SignalBufferFree simulates the DMA-completion ISR: half has finished
// transferring to the PWM hardware and is safe to refill.
func (l *RefillLoop) SignalBufferFree(half int) {
	select {
	case l.bufferFree <- half:
	default:
		// Loop already has both halves queued; on real hardware this
		// cannot happen (each half signals exactly once per transfer).
	}
}

// Run executes the refill protocol until Stop is
// called. onReady, if non-nil, is invoked with the half index and its two
// freshly-synthesised slices — standing in for "mark buffer i ready" /
// handing the half to the DMA/PWM hardware.
func (l *RefillLoop) Run(onReady func(half int, sliceA, sliceB []uint32)) {
	for {
		select {
		case <-l.stop:
			return
		case half := <-l.bufferFree:
			l.engine.RefillBuffer(l.sliceA[half], l.sliceB[half])
			if onReady != nil {
				onReady(half, l.sliceA[half], l.sliceB[half])
			}
		}
	}
}

// Stop ends a running Run loop.
func (l *RefillLoop) Stop() {
	close(l.stop)
}
