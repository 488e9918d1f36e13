package idgen

import (
	"hash/fnv"
	"os"
	"sync"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
	"github.com/sony/sonyflake"
)

var (
	workerOnce sync.Once
	worker     *sonyflake.Sonyflake
)

// Worker returns the process wide sonyflake worker. Every id of the process must come from it:
// two workers with the same machine id hand out the same ids within one time slot.
func Worker() *sonyflake.Sonyflake {
	workerOnce.Do(func() {
		worker = newWorker()
	})
	return worker
}

// NextID draws the next id from the process wide worker.
func NextID() types.ID {
	id, err := Worker().NextID()
	if err != nil {
		panic(err)
	}
	return types.ID(id)
}

// newWorker falls back to a machine id derived from the hostname on hosts without a private address.
func newWorker() *sonyflake.Sonyflake {
	if w, err := sonyflake.New(sonyflake.Settings{}); err == nil {
		return w
	} else {
		logrus.WithError(err).Warn("sonyflake default machine id unavailable, falling back to hostname")
	}

	w, err := sonyflake.New(sonyflake.Settings{MachineID: hostnameMachineID})
	if err != nil {
		panic(err)
	}
	return w
}

func hostnameMachineID() (uint16, error) {
	name, err := os.Hostname()
	if err != nil {
		return 0, err
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return uint16(h.Sum32()), nil
}
