package controller

import (
	"math/rand"
	"strconv"
	"time"
)

func (c controller) generateTimeBasedId() string {
	return strconv.FormatInt(time.Now().UnixNano(), 36) + strconv.FormatInt(rand.Int63n(1<<16), 36)
}
