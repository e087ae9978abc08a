/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Tue Mar  5 10:01:52 2019 mstenber
 * Last modified: Wed Mar 13 09:44:10 2019 mstenber
 * Edit time:     21 min
 *
 */

package bolt

import (
	"fmt"
	"log"
	"os"

	bbolt "github.com/coreos/bbolt"

	"github.com/fingon/go-blockfs/mlog"
	"github.com/fingon/go-blockfs/storage"
)

var chunkBucket = []byte("chunks")

// boltDevice provides the image as chunks in a bbolt database
// (single file, named like the image would be).
type boltDevice struct {
	storage.ChunkedDevice
}

var _ storage.Device = &boltDevice{}

func NewBoltDevice() storage.Device {
	return &boltDevice{}
}

func (self *boltDevice) Init(config storage.DeviceConfiguration) error {
	if config.Directory != "" {
		if err := os.MkdirAll(config.Directory, 0700); err != nil {
			return err
		}
	}
	path := config.Path()
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return fmt.Errorf("bbolt.Open %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(chunkBucket)
		return err
	})
	if err != nil {
		db.Close()
		return err
	}
	mlog.Printf2("storage/bolt/bolt", "bd.Init %s", path)
	store := &boltStore{db: db}
	if err = self.Open(store, config); err != nil {
		db.Close()
		return err
	}
	return nil
}

type boltStore struct {
	db *bbolt.DB
}

var _ storage.KeyValueStore = &boltStore{}

func (self *boltStore) Close() {
	self.db.Close()
}

func (self *boltStore) Get(key []byte) (v []byte) {
	err := self.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(chunkBucket).Get(key); b != nil {
			// only valid within the transaction
			v = append([]byte(nil), b...)
		}
		return nil
	})
	if err != nil {
		log.Panic(err)
	}
	return
}

func (self *boltStore) Set(kvs ...storage.KeyValue) {
	mlog.Printf2("storage/bolt/bolt", "bs.Set %d keys", len(kvs))
	err := self.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(chunkBucket)
		for _, kv := range kvs {
			if err := bucket.Put(kv.Key, kv.Value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Panic(err)
	}
}
