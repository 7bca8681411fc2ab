package realtime

import (
	"strings"
	"sync"
)

// Hub method names the backend invokes on the client.
const (
	TargetTxHistorySourceProgress   = "OnTxHistorySourceProgressUpdate"
	TargetSpamCoinAnalysedProgress  = "OnSpamCoinAnalysedProgressUpdate"
	TargetListReviewRecordsProgress = "OnListReviewRecordsProgressUpdate"
	TargetTaxCalculationProgress    = "OnTaxCalculationProgressUpdate"
)

// maxTxHistoryNotifications bounds the import progress feed of a long running process.
const maxTxHistoryNotifications = 500

// Notification is the payload of every progress update.
type Notification struct {
	Type               string  `json:"type"`
	Message            string  `json:"message"`
	ProgressPerc       float64 `json:"progressPerc"`
	ExternalIdentifier string  `json:"externalIdentifier"`
}

// Update is one received notification with the target it arrived on.
type Update struct {
	Target       string       `json:"target"`
	Notification Notification `json:"notification"`
}

// Snapshot is the observable state of the channel. TxHistorySources is newest first.
type Snapshot struct {
	TxHistorySources []Notification `json:"txHistorySources"`
	SpamCoinLoad     *Notification  `json:"spamCoinLoad"`
	ReviewRecords    *Notification  `json:"reviewRecords"`
	TaxCalculation   *Notification  `json:"taxCalculation"`
}

// State accumulates notifications and fans them out to subscribers.
type State struct {
	mu          sync.RWMutex
	snap        Snapshot
	subscribers map[int]chan Update
	nextID      int
}

func NewState() *State {
	return &State{subscribers: make(map[int]chan Update)}
}

// canonicalTarget matches target case-insensitively against the known targets.
func canonicalTarget(target string) (string, bool) {
	for _, known := range []string{
		TargetTxHistorySourceProgress,
		TargetSpamCoinAnalysedProgress,
		TargetListReviewRecordsProgress,
		TargetTaxCalculationProgress,
	} {
		if strings.EqualFold(known, target) {
			return known, true
		}
	}
	return "", false
}

// Apply records a notification for target. Unknown targets are ignored and reported false.
func (s *State) Apply(target string, n Notification) bool {
	canonical, ok := canonicalTarget(target)
	if !ok {
		return false
	}

	s.mu.Lock()
	switch canonical {
	case TargetTxHistorySourceProgress:
		list := make([]Notification, 0, len(s.snap.TxHistorySources)+1)
		list = append(list, n)
		list = append(list, s.snap.TxHistorySources...)
		if len(list) > maxTxHistoryNotifications {
			list = list[:maxTxHistoryNotifications]
		}
		s.snap.TxHistorySources = list
	case TargetSpamCoinAnalysedProgress:
		s.snap.SpamCoinLoad = &n
	case TargetListReviewRecordsProgress:
		s.snap.ReviewRecords = &n
	case TargetTaxCalculationProgress:
		s.snap.TaxCalculation = &n
	}
	s.mu.Unlock()

	// Sends never block, so holding the read lock keeps Subscribe's close safe.
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- Update{Target: canonical, Notification: n}:
		default:
		}
	}
	return true
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		TxHistorySources: append([]Notification(nil), s.snap.TxHistorySources...),
		SpamCoinLoad:     copyNotification(s.snap.SpamCoinLoad),
		ReviewRecords:    copyNotification(s.snap.ReviewRecords),
		TaxCalculation:   copyNotification(s.snap.TaxCalculation),
	}
}

func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = Snapshot{}
}

// Subscribe returns a channel of future updates. Slow subscribers miss updates
// rather than blocking the connection.
func (s *State) Subscribe(buffer int) (<-chan Update, func()) {
	ch := make(chan Update, buffer)
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

func copyNotification(n *Notification) *Notification {
	if n == nil {
		return nil
	}
	c := *n
	return &c
}
