/*
Package session implements session management and persistence orchestration.

Manager serialises access to stored snapshots, combining per-process locks
with an optional distributed locker so replicas can share one store. Pool
keeps the live wizard sessions of a replica, saves every committed change and
resumes sessions that were started elsewhere.
*/
package session
