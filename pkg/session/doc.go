/*
Package session manages the open editor sessions of a process.

An editor.Session is single-writer. The Manager makes sessions reachable
from concurrent callers, such as HTTP handlers, by running every action on a
session under that session's lock. An optional distributed locker extends
the guarantee across replicas.
*/
package session
