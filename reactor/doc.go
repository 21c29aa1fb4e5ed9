// Package reactor implements the single-threaded event loop at the heart
// of the framework (spec.md §4.D): Reactor drains posted closures —
// reads, writes, timer fires and cross-thread posts — one at a time on a
// single goroutine, and timerQueue schedules one-shot and periodic
// timers (spec.md §4.I) on top of it. A Linux epoll-backed Poller
// additionally gives package connector non-blocking readiness detection
// for outbound dials.
package reactor
