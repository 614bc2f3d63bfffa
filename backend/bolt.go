package backend

import (
	"github.com/boltdb/bolt"
	"github.com/sirupsen/logrus"
)

// blobBucketName is the single bucket blobs are stored under, keyed
// directly by blob name: a flat content-addressed-key-as-bucket-key
// layout, no secondary indexing.
var blobBucketName = []byte("blobs")

// Bolt is a local-filesystem blob backend backed by a single boltdb file,
// one of the four backend implementations named in the design notes
// (alongside in-memory, spawned-child and null-sink).
type Bolt struct {
	db    *bolt.DB
	queue *writeQueue
	log   *logrus.Entry
}

// OpenBolt opens (creating if necessary) a bolt-backed blob store at path.
func OpenBolt(path string, concurrency int) (*Bolt, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(blobBucketName)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Bolt{
		db:    db,
		queue: newWriteQueue(concurrency),
		log:   logrus.WithField("backend", "bolt"),
	}, nil
}

func (b *Bolt) Close() error { return b.db.Close() }

func (b *Bolt) Store(name []byte, ciphertext []byte, done DoneFunc) error {
	key := append([]byte(nil), name...)
	data := append([]byte(nil), ciphertext...)

	b.queue.submit(func() error {
		err := b.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(blobBucketName).Put(key, data)
		})
		if err != nil {
			b.log.WithError(err).WithField("blob", key).Error("failed to store blob")
			return nil
		}
		if done != nil {
			done()
		}
		return nil
	})

	return nil
}

func (b *Bolt) Retrieve(name []byte) (data []byte, found bool, err error) {
	err = b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(blobBucketName).Get(name)
		if v == nil {
			return nil
		}
		found = true
		data = append([]byte(nil), v...)
		return nil
	})
	return data, found, err
}

func (b *Bolt) Delete(name []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(blobBucketName).Delete(name)
	})
}

func (b *Bolt) List() ([][]byte, error) {
	var names [][]byte
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(blobBucketName).ForEach(func(k, _ []byte) error {
			names = append(names, append([]byte(nil), k...))
			return nil
		})
	})
	return names, err
}

func (b *Bolt) Flush() error {
	return b.queue.flush()
}

var _ Backend = (*Bolt)(nil)
