package turbine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/norasector/turbine-common/types"
	"github.com/norasector/turbine-p25/pkg/op25"
	"github.com/norasector/turbine-p25/pkg/op25/frame/p25"
	"github.com/rs/zerolog"
)

const grantBufferLength = 32

// SystemManager follows the voice grants announced on every channel.
type SystemManager struct {
	sites    map[int]*SiteManager
	mu       sync.Mutex
	recvChan chan op25.OSWPacket
	logger   zerolog.Logger
}

func NewSystemManager(logger zerolog.Logger) *SystemManager {
	return &SystemManager{
		sites:    make(map[int]*SiteManager),
		recvChan: make(chan op25.OSWPacket, grantBufferLength),
		logger:   logger,
	}
}

func (s *SystemManager) SiteForChannel(channelID int) *SiteManager {
	s.mu.Lock()
	site, ok := s.sites[channelID]
	if !ok {
		site = NewSiteManager(channelID)
		s.sites[channelID] = site
	}
	s.mu.Unlock()
	return site
}

func (s *SystemManager) Receive() chan<- op25.OSWPacket {
	return s.recvChan
}

func (s *SystemManager) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case pkt := <-s.recvChan:
					s.handle(pkt)
					continue
				default:
				}
				return ctx.Err()
			}
		case pkt := <-s.recvChan:
			s.handle(pkt)
		}
	}
}

func (s *SystemManager) handle(pkt op25.OSWPacket) {
	msg, ok := pkt.Packet.(*p25.Message)
	if !ok || !msg.Valid {
		return
	}
	tsbk, ok := msg.Payload.(p25.TSBK)
	if !ok {
		return
	}
	site := s.SiteForChannel(pkt.SystemID)

	if band, ok := p25.ParseIdentifierUpdate(tsbk); ok {
		if site.UpdateBand(band) {
			s.logger.Info().
				Int("channel", pkt.SystemID).
				Int("identifier", int(band.Identifier)).
				Str("base", op25.MHzToString(band.Base)).
				Int("spacing", band.Spacing).
				Msg("band plan")
		}
		return
	}

	if grant, ok := p25.ParseGroupGrant(tsbk); ok {
		freq := site.Frequency(grant.Channel)
		s.logger.Info().
			Int("channel", pkt.SystemID).
			Int("tgid", int(grant.Group)).
			Int("source_id", int(grant.Source)).
			Str("frequency", op25.MHzToString(freq)).
			Msg("group grant")
		site.UpdateGroup(int(grant.Group), int(grant.Source), freq)
		return
	}

	if update, ok := p25.ParseGroupGrantUpdate(tsbk); ok {
		for i := range update.Groups {
			if update.Groups[i] == 0 {
				continue
			}
			site.UpdateGroup(int(update.Groups[i]), 0, site.Frequency(update.Channels[i]))
		}
	}
}

// SiteManager holds one site's band plan and the groups recently granted a
// voice channel.
type SiteManager struct {
	bands                map[uint8]p25.IdentifierUpdate
	talkGroupsByFreq     map[int]types.TalkGroup
	talkGroupsByTGID     map[int]types.TalkGroup
	talkGroupsBySourceID map[int]types.TalkGroup
	mu                   sync.RWMutex
	purgeTime            time.Duration
	systemID             int
}

func NewSiteManager(systemID int) *SiteManager {
	return &SiteManager{
		bands:                make(map[uint8]p25.IdentifierUpdate),
		talkGroupsByFreq:     make(map[int]types.TalkGroup),
		talkGroupsByTGID:     make(map[int]types.TalkGroup),
		talkGroupsBySourceID: make(map[int]types.TalkGroup),
		systemID:             systemID,
		purgeTime:            time.Second * 3,
	}
}

// UpdateBand records a band and reports whether it changed.
func (v *SiteManager) UpdateBand(band p25.IdentifierUpdate) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	old, ok := v.bands[band.Identifier]
	v.bands[band.Identifier] = band
	return !ok || old != band
}

// Frequency resolves a channel field, 0 when its band is not known yet.
func (v *SiteManager) Frequency(channel uint16) int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	band, ok := v.bands[uint8(channel>>12)]
	if !ok {
		return 0
	}
	freq, _ := band.Frequency(channel)
	return freq
}

func (v *SiteManager) validateReturn(tg types.TalkGroup, ok bool) *types.TalkGroup {
	if !ok || time.Since(tg.LastUpdate) > v.purgeTime {
		return nil
	}
	return &tg
}

func (v *SiteManager) TalkGroupForFrequency(freq int) *types.TalkGroup {
	v.mu.RLock()
	tg, ok := v.talkGroupsByFreq[freq]
	v.mu.RUnlock()
	return v.validateReturn(tg, ok)
}

func (v *SiteManager) TalkGroupForID(id int) *types.TalkGroup {
	v.mu.RLock()
	tg, ok := v.talkGroupsByTGID[id]
	v.mu.RUnlock()
	return v.validateReturn(tg, ok)
}

func (v *SiteManager) TalkGroupForSourceID(sid int) *types.TalkGroup {
	v.mu.RLock()
	tg, ok := v.talkGroupsBySourceID[sid]
	v.mu.RUnlock()
	return v.validateReturn(tg, ok)
}

// UpdateGroup refreshes a group's call.  A zero sourceID or freq keeps the
// value already known.
func (v *SiteManager) UpdateGroup(tgid, sourceID, freq int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	tg, ok := v.talkGroupsByTGID[tgid]
	if ok {
		if sourceID == 0 {
			sourceID = tg.SourceID
		}
		if freq == 0 {
			freq = tg.Frequency
		}
		if freq != tg.Frequency {
			delete(v.talkGroupsByFreq, tg.Frequency)
		}
		if sourceID != tg.SourceID {
			delete(v.talkGroupsBySourceID, tg.SourceID)
		}
	}

	tg.ID = tgid
	tg.SystemID = v.systemID
	tg.SourceID = sourceID
	tg.Frequency = freq
	tg.LastUpdate = time.Now()
	v.talkGroupsByTGID[tgid] = tg
	if freq != 0 {
		v.talkGroupsByFreq[freq] = tg
	}
	if sourceID != 0 {
		v.talkGroupsBySourceID[sourceID] = tg
	}
}

// ActiveGroups returns the groups updated within the purge time, by ID.
func (v *SiteManager) ActiveGroups() []types.TalkGroup {
	v.mu.RLock()
	defer v.mu.RUnlock()
	ret := make([]types.TalkGroup, 0, len(v.talkGroupsByTGID))
	for _, tg := range v.talkGroupsByTGID {
		if time.Since(tg.LastUpdate) <= v.purgeTime {
			ret = append(ret, tg)
		}
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].ID < ret[j].ID })
	return ret
}
