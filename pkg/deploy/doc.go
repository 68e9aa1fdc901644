/*
Package deploy implements the two write paths the API exposes for a
deployment's lifecycle beyond plain CRUD: Create, which supersedes any
existing active deployment sharing the same namespace and name, and
Rollback, which reactivates the most recently superseded predecessor.

Both operations write to storage directly and are the one exception to
the single-writer-is-the-scheduler rule described in pkg/scheduler's doc
comment — they are the user-driven transitions that rule carves out.
*/
package deploy
