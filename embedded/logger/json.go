/*
Copyright 2025 Codenotary Inc. All rights reserved.

SPDX-License-Identifier: BUSL-1.1
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	https://mariadb.com/bsl11/

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

const DefaultTimeFormat = "2006-01-02T15:04:05.000000Z07:00"

var _ Logger = (*JsonLogger)(nil)

// JsonLogger writes one JSON object per line.
type JsonLogger struct {
	name       string
	level      LogLevel
	timeFormat string
	timeFnc    TimeFunc

	mutex sync.Mutex
	out   io.Writer
	enc   *json.Encoder
}

func NewJSONLogger(opts *Options) *JsonLogger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	l := &JsonLogger{
		name:       opts.Name,
		level:      opts.Level,
		timeFormat: DefaultTimeFormat,
		timeFnc:    time.Now,
		out:        out,
		enc:        json.NewEncoder(out),
	}

	if opts.TimeFnc != nil {
		l.timeFnc = opts.TimeFnc
	}
	if opts.TimeFormat != "" {
		l.timeFormat = opts.TimeFormat
	}
	return l
}

func (l *JsonLogger) Errorf(f string, args ...interface{}) {
	l.log(LogError, f, args)
}

func (l *JsonLogger) Warningf(f string, args ...interface{}) {
	l.log(LogWarn, f, args)
}

func (l *JsonLogger) Infof(f string, args ...interface{}) {
	l.log(LogInfo, f, args)
}

func (l *JsonLogger) Debugf(f string, args ...interface{}) {
	l.log(LogDebug, f, args)
}

func (l *JsonLogger) log(level LogLevel, f string, args []interface{}) {
	if level < l.level {
		return
	}

	vals := map[string]interface{}{
		"message":   fmt.Sprintf(f, args...),
		"timestamp": l.timeFnc().Format(l.timeFormat),
		"level":     level.String(),
	}
	if l.name != "" {
		vals["module"] = l.name
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	_ = l.enc.Encode(vals)
}

func (l *JsonLogger) Close() error {
	if c, ok := l.out.(io.Closer); ok && !isStdStream(l.out) {
		return c.Close()
	}
	return nil
}

func isStdStream(w io.Writer) bool {
	return w == os.Stdout || w == os.Stderr
}
