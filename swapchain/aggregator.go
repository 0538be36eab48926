// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package swapchain

import (
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/gviegas/present/driver"
)

// ProducerID identifies the goroutine that drives a
// Swapchain. Callers choose the values; each producer
// must use a distinct one.
type ProducerID int

// Aggregator coalesces the presentation of several
// Swapchains into a single submission and a single
// present call, so that they reach the display in the
// same refresh.
//
// Each producer goroutine calls Acquire, draws, calls
// Flush and then registers its Swapchain. Once every
// producer is done, one goroutine calls PresentAll.
// The Swapchains must outlive the PresentAll call.
type Aggregator struct {
	mu    sync.Mutex
	ids   []ProducerID
	chain map[ProducerID]*Swapchain
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{chain: make(map[ProducerID]*Swapchain)}
}

// Register registers sc as the Swapchain of producer id
// for the next PresentAll.
// A later registration under the same id replaces the
// earlier one but keeps its position.
// Registering the same Swapchain under several ids has
// no effect beyond the first.
func (a *Aggregator) Register(id ProducerID, sc *Swapchain) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.chain[id]; !ok {
		a.ids = append(a.ids, id)
	}
	a.chain[id] = sc
}

// Register registers s with a under producer id.
func (s *Swapchain) Register(a *Aggregator, id ProducerID) { a.Register(id, s) }

// Len returns the number of registered Swapchains.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.ids)
}

// Reset discards all registrations.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	a.clear()
	a.mu.Unlock()
}

func (a *Aggregator) clear() {
	a.ids = a.ids[:0]
	clear(a.chain)
}

// PresentAll submits the recorded commands of every
// registered Swapchain in a single batch that signals
// fence, then presents all of them at once.
// The slots involved are marked BatchedPendingFence, so
// their next Acquire does not wait on their own fences;
// the caller must wait on fence before that happens.
//
// Registrations are cleared whether or not PresentAll
// succeeds. Calling PresentAll with nothing registered
// does nothing.
func (a *Aggregator) PresentAll(fence driver.Fence) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	defer a.clear()

	if len(a.ids) == 0 {
		Logger().Warn("nothing to present")
		return nil
	}

	var (
		gpu     driver.GPU
		pres    driver.Presenter
		sems    = make([]driver.Semaphore, 0, len(a.ids))
		cbs     = make([]driver.CmdBuffer, 0, len(a.ids))
		chains  = make([]driver.Chain, 0, len(a.ids))
		indices = make([]int, 0, len(a.ids))
		seen    = make(map[*Swapchain]bool, len(a.ids))
	)
	for _, id := range a.ids {
		sc := a.chain[id]
		// A chain can appear in a presentation only once.
		if seen[sc] {
			Logger().WithField("producer", id).Warn("swapchain registered twice")
			continue
		}
		seen[sc] = true
		native, err := sc.state.chain()
		if err == nil && sc.curImg < 0 {
			err = ErrNotAcquired
		}
		if err != nil {
			Logger().WithFields(log.Fields{"producer": id, "err": err}).Warn("skipping swapchain")
			continue
		}
		if gpu == nil {
			gpu, pres = sc.gpu, sc.pres
		}
		bb := sc.bbufs[sc.curBuf]
		bb.state = BatchedPendingFence
		sems = append(sems, bb.RenderSemaphore())
		cbs = append(cbs, bb.RenderCmdBuffer())
		chains = append(chains, native)
		indices = append(indices, sc.curImg)
	}
	if gpu == nil {
		return errors.New("swapchain: no valid swapchain to present")
	}

	err := gpu.Submit(&driver.Submission{
		Signal: sems,
		Cmd:    cbs,
		Fence:  fence,
	})
	if err != nil {
		return stepError(stepRendSubmit, err)
	}

	err = pres.Present(&driver.Presentation{
		Wait:    sems,
		Chains:  chains,
		Indices: indices,
	})
	if err != nil {
		return stepError(stepPresent, presentError(err))
	}
	return nil
}
