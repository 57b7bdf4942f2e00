package funding

import (
	"github.com/pkg/errors"

	"github.com/iotaledger/hive.go/core/kvstore"
	"github.com/iotaledger/hive.go/core/kvstore/mapdb"
	"github.com/iotaledger/hive.go/core/kvstore/pebble"
)

// storeWithDefaultSettings opens the funding database with the given engine.
func storeWithDefaultSettings(path string, engine string) (kvstore.KVStore, error) {
	switch engine {
	case "pebble":
		db, err := pebble.CreateDB(path)
		if err != nil {
			return nil, err
		}

		return pebble.New(db), nil

	case "mapdb":
		return mapdb.NewMapDB(), nil

	default:
		return nil, errors.Errorf("unknown database engine: %s, supported engines: pebble/mapdb", engine)
	}
}
