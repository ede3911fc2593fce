/*
Package cascade implements a multi-tier execution engine that dispatches a
single logical invocation through an ordered sequence of increasingly
capable and costly tiers — code, generative, agentic, human — escalating on
failure, timeout, or skip.

A Cascade is built once from a set of tier handlers and Options, then
invoked any number of times concurrently via Execute. Each Execute call owns
its own history buffer and metrics; no mutable state is shared between
concurrent invocations of the same Cascade.

Sequential mode (the default) escalates tiers one at a time, retrying each
up to its configured retry count before moving on. Parallel mode
(Options.EnableParallel) races every eligible tier at once and returns the
first success; in this mode escalations and retries are always reported as
zero and history is ordered by attempt termination time, not start time.
*/
package cascade
