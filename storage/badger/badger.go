/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Tue Mar  5 10:30:02 2019 mstenber
 * Last modified: Wed Mar 13 09:47:37 2019 mstenber
 * Edit time:     24 min
 *
 */

package badger

import (
	"fmt"
	"log"

	"github.com/dgraph-io/badger"

	"github.com/fingon/go-blockfs/mlog"
	"github.com/fingon/go-blockfs/storage"
)

// badgerDevice provides the image as chunks in a badger database;
// the image name is a directory in this case.
type badgerDevice struct {
	storage.ChunkedDevice
}

var _ storage.Device = &badgerDevice{}

func NewBadgerDevice() storage.Device {
	return &badgerDevice{}
}

func (self *badgerDevice) Init(config storage.DeviceConfiguration) error {
	dir := config.Path()
	opts := badger.DefaultOptions
	opts.Dir = dir
	opts.ValueDir = dir
	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("badger.Open %s: %w", dir, err)
	}
	mlog.Printf2("storage/badger/badger", "bd.Init %s", dir)
	if err = self.Open(&badgerStore{db: db}, config); err != nil {
		db.Close()
		return err
	}
	return nil
}

type badgerStore struct {
	db *badger.DB
}

var _ storage.KeyValueStore = &badgerStore{}

func (self *badgerStore) Close() {
	self.db.Close()
}

func (self *badgerStore) Get(key []byte) (v []byte) {
	err := self.db.View(func(txn *badger.Txn) error {
		i, err := txn.Get(key)
		if err == nil {
			v, err = i.ValueCopy(nil)
		}
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil
	}
	if err != nil {
		log.Panic("badger get: ", err)
	}
	return
}

func (self *badgerStore) Set(kvs ...storage.KeyValue) {
	mlog.Printf2("storage/badger/badger", "bs.Set %d keys", len(kvs))
	err := self.db.Update(func(txn *badger.Txn) error {
		for _, kv := range kvs {
			if err := txn.Set(kv.Key, kv.Value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Panic("badger set: ", err)
	}
}
