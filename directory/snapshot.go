package directory

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Data is the raw content of a directory snapshot.
type Data struct {
	Users           []User
	Streams         []Stream
	Subscriptions   []Subscription
	Groups          []UserGroup
	Emoji           []Emoji
	Topics          []Topic
	DMConversations []DMConversation
	Mutes           []Mute
	SlashCommands   []SlashCommand
	Languages       []Language
}

// Snapshot is an immutable, indexed view of the directory. Readers may hold
// on to a snapshot for as long as they like; refreshes build a new one.
//
// Lookups of unknown IDs return ok=false or empty results, never errors.
type Snapshot struct {
	data     Data
	loadedAt time.Time

	usersByID     map[int64]User
	usersByEmail  map[string]int64
	nameCounts    map[string]int
	streamsByID   map[int64]Stream
	streamsByName map[string]int64
	subscribers   map[int64]map[int64]bool
	pinned        map[int64]map[int64]bool
	subsByUser    map[int64][]int64
	groupsByID    map[int64]UserGroup
	topics        map[int64][]Topic
	mutes         map[int64]map[int64]bool
}

// NewSnapshot indexes data. Slices are copied and sorted: users, streams and
// groups by ID, topics and conversations by recency, languages by priority.
func NewSnapshot(data Data) *Snapshot {
	s := &Snapshot{
		loadedAt:      time.Now(),
		usersByID:     make(map[int64]User, len(data.Users)),
		usersByEmail:  make(map[string]int64, len(data.Users)),
		nameCounts:    make(map[string]int, len(data.Users)),
		streamsByID:   make(map[int64]Stream, len(data.Streams)),
		streamsByName: make(map[string]int64, len(data.Streams)),
		subscribers:   make(map[int64]map[int64]bool),
		pinned:        make(map[int64]map[int64]bool),
		subsByUser:    make(map[int64][]int64),
		groupsByID:    make(map[int64]UserGroup, len(data.Groups)),
		topics:        make(map[int64][]Topic),
		mutes:         make(map[int64]map[int64]bool),
	}

	s.data.Users = append([]User(nil), data.Users...)
	sort.SliceStable(s.data.Users, func(i, j int) bool { return s.data.Users[i].ID < s.data.Users[j].ID })
	for _, u := range s.data.Users {
		s.usersByID[u.ID] = u
		s.usersByEmail[strings.ToLower(u.Email)] = u.ID
		if u.DeliveryEmail != "" {
			s.usersByEmail[strings.ToLower(u.DeliveryEmail)] = u.ID
		}
		if u.IsActive {
			s.nameCounts[strings.ToLower(u.FullName)]++
		}
	}

	s.data.Streams = append([]Stream(nil), data.Streams...)
	sort.SliceStable(s.data.Streams, func(i, j int) bool { return s.data.Streams[i].ID < s.data.Streams[j].ID })
	for _, st := range s.data.Streams {
		s.streamsByID[st.ID] = st
		s.streamsByName[strings.ToLower(st.Name)] = st.ID
	}

	s.data.Subscriptions = append([]Subscription(nil), data.Subscriptions...)
	for _, sub := range s.data.Subscriptions {
		if s.subscribers[sub.StreamID] == nil {
			s.subscribers[sub.StreamID] = make(map[int64]bool)
		}
		if !s.subscribers[sub.StreamID][sub.UserID] {
			s.subsByUser[sub.UserID] = append(s.subsByUser[sub.UserID], sub.StreamID)
		}
		s.subscribers[sub.StreamID][sub.UserID] = true
		if sub.PinToTop {
			if s.pinned[sub.StreamID] == nil {
				s.pinned[sub.StreamID] = make(map[int64]bool)
			}
			s.pinned[sub.StreamID][sub.UserID] = true
		}
	}

	s.data.Groups = append([]UserGroup(nil), data.Groups...)
	sort.SliceStable(s.data.Groups, func(i, j int) bool { return s.data.Groups[i].ID < s.data.Groups[j].ID })
	for _, g := range s.data.Groups {
		s.groupsByID[g.ID] = g
	}

	s.data.Emoji = append([]Emoji(nil), data.Emoji...)

	s.data.Topics = append([]Topic(nil), data.Topics...)
	for _, t := range s.data.Topics {
		s.topics[t.StreamID] = append(s.topics[t.StreamID], t)
	}
	for id := range s.topics {
		sortTopics(s.topics[id])
	}

	s.data.DMConversations = append([]DMConversation(nil), data.DMConversations...)
	sort.SliceStable(s.data.DMConversations, func(i, j int) bool {
		return s.data.DMConversations[i].MaxMessageID > s.data.DMConversations[j].MaxMessageID
	})

	s.data.Mutes = append([]Mute(nil), data.Mutes...)
	for _, m := range s.data.Mutes {
		if s.mutes[m.Muter] == nil {
			s.mutes[m.Muter] = make(map[int64]bool)
		}
		s.mutes[m.Muter][m.Muted] = true
	}

	s.data.SlashCommands = append([]SlashCommand(nil), data.SlashCommands...)
	s.data.Languages = append([]Language(nil), data.Languages...)
	sort.SliceStable(s.data.Languages, func(i, j int) bool {
		return s.data.Languages[i].Priority > s.data.Languages[j].Priority
	})

	return s
}

func sortTopics(topics []Topic) {
	sort.SliceStable(topics, func(i, j int) bool { return topics[i].MaxMessageID > topics[j].MaxMessageID })
}

// LoadedAt returns when the snapshot was built
func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}

// Users returns every user, active or not, ordered by ID.
func (s *Snapshot) Users() []User {
	return s.data.Users
}

// UserByID looks up a user
func (s *Snapshot) UserByID(id int64) (User, bool) {
	u, ok := s.usersByID[id]
	return u, ok
}

// UserByEmail looks up a user by email or delivery email, case-insensitively
func (s *Snapshot) UserByEmail(email string) (User, bool) {
	id, ok := s.usersByEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return User{}, false
	}
	return s.UserByID(id)
}

// LookupUser resolves a reference typed by a person or a tool: a numeric
// user id or an email address.
func (s *Snapshot) LookupUser(ref string) (User, bool) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return s.UserByID(id)
	}
	return s.UserByEmail(ref)
}

// HasDuplicateFullName reports whether more than one active user is called name.
func (s *Snapshot) HasDuplicateFullName(name string) bool {
	return s.nameCounts[strings.ToLower(name)] > 1
}

// Streams returns every stream ordered by ID
func (s *Snapshot) Streams() []Stream {
	return s.data.Streams
}

// StreamByID looks up a stream
func (s *Snapshot) StreamByID(id int64) (Stream, bool) {
	st, ok := s.streamsByID[id]
	return st, ok
}

// StreamByName looks up a stream case-insensitively
func (s *Snapshot) StreamByName(name string) (Stream, bool) {
	id, ok := s.streamsByName[strings.ToLower(name)]
	if !ok {
		return Stream{}, false
	}
	return s.StreamByID(id)
}

// IsSubscribed reports whether userID is subscribed to streamID
func (s *Snapshot) IsSubscribed(streamID, userID int64) bool {
	return s.subscribers[streamID][userID]
}

// IsPinned reports whether userID pinned streamID to the top of their list
func (s *Snapshot) IsPinned(streamID, userID int64) bool {
	return s.pinned[streamID][userID]
}

// SubscriberCount returns the number of subscribers of streamID
func (s *Snapshot) SubscriberCount(streamID int64) int {
	return len(s.subscribers[streamID])
}

// SubscribedStreamIDs returns the streams userID is subscribed to
func (s *Snapshot) SubscribedStreamIDs(userID int64) []int64 {
	return s.subsByUser[userID]
}

// Groups returns every user group ordered by ID
func (s *Snapshot) Groups() []UserGroup {
	return s.data.Groups
}

// GroupByID looks up a user group
func (s *Snapshot) GroupByID(id int64) (UserGroup, bool) {
	g, ok := s.groupsByID[id]
	return g, ok
}

// IsUserInGroup reports whether userID belongs to groupID directly or
// through any chain of subgroups. Cycles in the subgroup graph are tolerated.
func (s *Snapshot) IsUserInGroup(groupID, userID int64) bool {
	visited := make(map[int64]bool)
	queue := []int64{groupID}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true

		g, ok := s.groupsByID[id]
		if !ok {
			continue
		}
		for _, member := range g.Members {
			if member == userID {
				return true
			}
		}
		queue = append(queue, g.DirectSubgroups...)
	}
	return false
}

// Emoji returns the emoji catalogue: realm emoji followed by unicode emoji
func (s *Snapshot) Emoji() []Emoji {
	return s.data.Emoji
}

// TopicsForStream returns the topics of streamID, most recent first
func (s *Snapshot) TopicsForStream(streamID int64) []Topic {
	return s.topics[streamID]
}

// DMConversations returns every direct message conversation, most recent first
func (s *Snapshot) DMConversations() []DMConversation {
	return s.data.DMConversations
}

// DMPartnerRecency maps each user who shares a direct message conversation
// with viewerID to the most recent message id of any such conversation.
func (s *Snapshot) DMPartnerRecency(viewerID int64) map[int64]int64 {
	recency := make(map[int64]int64)
	for _, c := range s.data.DMConversations {
		if !containsID(c.UserIDs, viewerID) {
			continue
		}
		for _, id := range c.UserIDs {
			if id != viewerID && c.MaxMessageID > recency[id] {
				recency[id] = c.MaxMessageID
			}
		}
	}
	return recency
}

// IsMuted reports whether viewerID has muted userID
func (s *Snapshot) IsMuted(viewerID, userID int64) bool {
	return s.mutes[viewerID][userID]
}

// CanAccessUser reports whether viewerID may see userID. Guests only see
// users they share a stream or a direct message conversation with.
func (s *Snapshot) CanAccessUser(viewerID, userID int64) bool {
	if viewerID == userID {
		return true
	}
	viewer, ok := s.usersByID[viewerID]
	if !ok || !viewer.IsGuest() {
		return true
	}

	for _, streamID := range s.subsByUser[viewerID] {
		if s.subscribers[streamID][userID] {
			return true
		}
	}
	for _, c := range s.data.DMConversations {
		if containsID(c.UserIDs, viewerID) && containsID(c.UserIDs, userID) {
			return true
		}
	}
	return false
}

// SlashCommands returns the registered slash commands
func (s *Snapshot) SlashCommands() []SlashCommand {
	return s.data.SlashCommands
}

// Languages returns code block languages, most popular first
func (s *Snapshot) Languages() []Language {
	return s.data.Languages
}

// Counts summarizes the snapshot for logs and health checks.
func (s *Snapshot) Counts() map[string]int {
	return map[string]int{
		"users":            len(s.data.Users),
		"streams":          len(s.data.Streams),
		"groups":           len(s.data.Groups),
		"emoji":            len(s.data.Emoji),
		"topics":           len(s.data.Topics),
		"dm_conversations": len(s.data.DMConversations),
	}
}

// withTopics returns a copy of s whose topics for streamID are replaced.
func (s *Snapshot) withTopics(streamID int64, topics []Topic) *Snapshot {
	next := *s
	next.topics = make(map[int64][]Topic, len(s.topics)+1)
	for id, ts := range s.topics {
		next.topics[id] = ts
	}

	sorted := append([]Topic(nil), topics...)
	sortTopics(sorted)
	next.topics[streamID] = sorted

	next.data.Topics = nil
	for _, ts := range next.topics {
		next.data.Topics = append(next.data.Topics, ts...)
	}
	next.loadedAt = time.Now()
	return &next
}

func containsID(ids []int64, id int64) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
