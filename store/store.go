// Package store 把会议记录持久化到 pebble，键为 ksuid。
// 值就是 ConferenceCodec 编码出的 Parcel，视频端点句柄只在写入它的进程内有意义。
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"

	"github.com/aaronwong1989/goparcel/comm/logging"
	"github.com/aaronwong1989/goparcel/parcel"
	"github.com/aaronwong1989/goparcel/telecom"
)

var log = logging.GetDefaultLogger()

var ErrNotFound = errors.New("store: conference not found")

var keyPrefix = []byte("conf/")

type Store struct {
	db    *pebble.DB
	codec *telecom.ConferenceCodec
	enc   parcel.StringEncoding
	sync  bool
}

type Options struct {
	Path  string
	Codec *telecom.ConferenceCodec
	// 字符串编码，只影响新写入的记录
	Encoding parcel.StringEncoding
	// 每次提交都落盘
	Sync bool
}

func Open(opts Options) (*Store, error) {
	db, err := pebble.Open(opts.Path, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	codec := opts.Codec
	if codec == nil {
		codec = telecom.NewConferenceCodec()
	}
	return &Store{db: db, codec: codec, enc: opts.Encoding, sync: opts.Sync}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) writeOptions() *pebble.WriteOptions {
	if s.sync {
		return pebble.Sync
	}
	return pebble.NoSync
}

func key(id ksuid.KSUID) []byte {
	return append(append([]byte{}, keyPrefix...), id.Bytes()...)
}

func (s *Store) encode(rec *telecom.ParcelableConference) ([]byte, error) {
	p := parcel.New(parcel.WithStringEncoding(s.enc))
	if err := s.codec.Encode(rec, p); err != nil {
		return nil, err
	}
	return p.Bytes(), nil
}

func (s *Store) decode(value []byte) (*telecom.ParcelableConference, error) {
	return s.codec.Decode(parcel.FromBytes(value, parcel.WithStringEncoding(s.enc)))
}

// Put 保存一条记录，返回新分配的 id
func (s *Store) Put(rec *telecom.ParcelableConference) (ksuid.KSUID, error) {
	value, err := s.encode(rec)
	if err != nil {
		return ksuid.Nil, err
	}
	id := ksuid.New()
	if err := s.db.Set(key(id), value, s.writeOptions()); err != nil {
		return ksuid.Nil, err
	}
	return id, nil
}

// PutBatch 原子地保存一批记录，空槽位跳过
func (s *Store) PutBatch(records []*telecom.ParcelableConference) ([]ksuid.KSUID, error) {
	batch := s.db.NewBatch()
	defer batch.Close()

	ids := make([]ksuid.KSUID, 0, len(records))
	for i, rec := range records {
		if rec == nil {
			continue
		}
		value, err := s.encode(rec)
		if err != nil {
			return nil, fmt.Errorf("store: slot %d: %w", i, err)
		}
		id := ksuid.New()
		if err := batch.Set(key(id), value, nil); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := batch.Commit(s.writeOptions()); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) Get(id ksuid.KSUID) (*telecom.ParcelableConference, error) {
	value, closer, err := s.db.Get(key(id))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	defer closer.Close()
	// value 只在 closer 关闭前有效，解码会拷贝需要保留的数据
	return s.decode(value)
}

func (s *Store) Delete(id ksuid.KSUID) error {
	return s.db.Delete(key(id), s.writeOptions())
}

// Scan 按键顺序遍历，ksuid 只保证秒级的时间顺序，fn 返回错误时停止
func (s *Store) Scan(fn func(id ksuid.KSUID, rec *telecom.ParcelableConference) error) error {
	upper := append(append([]byte{}, keyPrefix[:len(keyPrefix)-1]...), keyPrefix[len(keyPrefix)-1]+1)
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: keyPrefix, UpperBound: upper})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		id, err := ksuid.FromBytes(iter.Key()[len(keyPrefix):])
		if err != nil {
			return fmt.Errorf("store: bad key %x: %w", iter.Key(), err)
		}
		rec, err := s.decode(iter.Value())
		if err != nil {
			return fmt.Errorf("store: %s: %w", id, err)
		}
		if err := fn(id, rec); err != nil {
			return err
		}
	}
	return iter.Error()
}

// HandleBatch 作为中继的 Handler 使用
func (s *Store) HandleBatch(_ context.Context, records []*telecom.ParcelableConference) error {
	ids, err := s.PutBatch(records)
	if err != nil {
		return err
	}
	log.Debugf("[%-9s] stored %d conferences", "Store", len(ids))
	return nil
}
