package scoring_test

import (
	"context"
	"errors"
	"slices"
	"sync"

	"discussion-bot/scoring"
)

var errPlatform = errors.New("platform unavailable")

// fakePlatform serves a fixed forum from memory.
type fakePlatform struct {
	mu sync.Mutex

	threads  map[string]*scoring.Thread
	messages map[string][]*scoring.Message // oldest first, per thread
	reactors map[string][]string           // messageID+emoji
	staff    map[string]bool
	roleErr  map[string]bool

	messagesErr error
	lockErr     error // returned when locking, after the call is recorded
	failPages   int // ThreadMessages fails this many times before succeeding
	pageCalls   int
	lockCalls   []lockCall
}

type lockCall struct {
	threadID string
	locked   bool
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		threads:  make(map[string]*scoring.Thread),
		messages: make(map[string][]*scoring.Message),
		reactors: make(map[string][]string),
		staff:    make(map[string]bool),
		roleErr:  make(map[string]bool),
	}
}

func (f *fakePlatform) addThread(id, parentID string, msgs ...*scoring.Message) {
	f.threads[id] = &scoring.Thread{ID: id, ParentID: parentID}
	for _, m := range msgs {
		m.ChannelID = id
	}
	f.messages[id] = msgs
}

func (f *fakePlatform) ResolveThread(_ context.Context, threadID string) (*scoring.Thread, error) {
	thread, ok := f.threads[threadID]
	if !ok {
		return nil, scoring.ErrThreadNotFound
	}
	return thread, nil
}

func (f *fakePlatform) ForumThreads(_ context.Context, forumID string) ([]*scoring.Thread, error) {
	var threads []*scoring.Thread
	for _, thread := range f.threads {
		if thread.ParentID == forumID {
			threads = append(threads, thread)
		}
	}
	slices.SortFunc(threads, func(a, b *scoring.Thread) int {
		if a.ID < b.ID {
			return -1
		}
		return 1
	})
	return threads, nil
}

func (f *fakePlatform) ThreadRoot(_ context.Context, threadID string) (*scoring.Message, error) {
	for _, m := range f.messages[threadID] {
		if m.ID == threadID {
			return m, nil
		}
	}
	return nil, scoring.ErrThreadNotFound
}

func (f *fakePlatform) ThreadMessages(_ context.Context, threadID string, limit int, before string) ([]*scoring.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pageCalls++
	if f.messagesErr != nil {
		return nil, f.messagesErr
	}
	if f.failPages > 0 {
		f.failPages--
		return nil, errPlatform
	}

	msgs := f.messages[threadID]
	end := len(msgs)
	if before != "" {
		end = slices.IndexFunc(msgs, func(m *scoring.Message) bool { return m.ID == before })
	}
	var page []*scoring.Message
	for i := end - 1; i >= 0 && len(page) < limit; i-- {
		page = append(page, msgs[i])
	}
	return page, nil
}

func (f *fakePlatform) Reactors(_ context.Context, _, messageID, emoji string) ([]string, error) {
	users, ok := f.reactors[messageID+emoji]
	if !ok {
		return nil, errPlatform
	}
	return users, nil
}

func (f *fakePlatform) SetThreadLocked(_ context.Context, threadID string, locked bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lockCalls = append(f.lockCalls, lockCall{threadID: threadID, locked: locked})
	if locked && f.lockErr != nil {
		return f.lockErr
	}
	return nil
}

func (f *fakePlatform) MemberHasRole(_ context.Context, _, memberID, _ string) (bool, error) {
	if f.roleErr[memberID] {
		return false, errPlatform
	}
	return f.staff[memberID], nil
}
