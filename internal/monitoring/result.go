package monitoring

import (
	"fmt"
)

// Result is the settled outcome of fetching one raw group. The zero value
// is a failure with no recorded reason, so an unset group reads as absent.
type Result[T any] struct {
	Value T
	Err   error
	ok    bool
}

// Succeeded wraps a successfully fetched value.
func Succeeded[T any](v T) Result[T] {
	return Result[T]{Value: v, ok: true}
}

// Failed records a fetch failure.
func Failed[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// OK reports whether the group was fetched.
func (r Result[T]) OK() bool {
	return r.ok
}

// Or returns the fetched value, or def when the group is absent.
func (r Result[T]) Or(def T) T {
	if r.ok {
		return r.Value
	}
	return def
}

// RawGroups holds one settled Result per raw group.
type RawGroups struct {
	CPULoad      Result[CPULoad]
	Memory       Result[MemoryStat]
	Time         Result[TimeInfo]
	OSInfo       Result[OSInfo]
	Battery      Result[BatteryStat]
	Graphics     Result[Graphics]
	Filesystems  Result[[]Filesystem]
	NetworkStats Result[[]NetworkStat]
	Processes    Result[[]ProcessStat]
}

// Failures returns the failed groups and their reasons. Groups that were
// never fetched report a nil error.
func (g RawGroups) Failures() map[GroupName]error {
	failed := make(map[GroupName]error)
	check := func(name GroupName, ok bool, err error) {
		if !ok {
			failed[name] = err
		}
	}
	check(GroupCPULoad, g.CPULoad.OK(), g.CPULoad.Err)
	check(GroupMemory, g.Memory.OK(), g.Memory.Err)
	check(GroupUptime, g.Time.OK(), g.Time.Err)
	check(GroupOSInfo, g.OSInfo.OK(), g.OSInfo.Err)
	check(GroupBattery, g.Battery.OK(), g.Battery.Err)
	check(GroupGraphics, g.Graphics.OK(), g.Graphics.Err)
	check(GroupFilesystems, g.Filesystems.OK(), g.Filesystems.Err)
	check(GroupNetwork, g.NetworkStats.OK(), g.NetworkStats.Err)
	check(GroupProcesses, g.Processes.OK(), g.Processes.Err)
	return failed
}

// GroupError is a raw fetch failure tagged with its group.
type GroupError struct {
	Group GroupName
	Err   error
}

func (e *GroupError) Error() string {
	return fmt.Sprintf("%s: %v", e.Group, e.Err)
}

func (e *GroupError) Unwrap() error {
	return e.Err
}
