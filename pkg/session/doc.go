// Package session tracks live login sessions in Redis.
//
// A session is created at login under the key
// "gatehouse:login_uid:<principal id>" with a TTL matching the token
// lifetime, checked on every authenticated request, and deleted on
// logout. Deleting the session is the server-side revocation mechanism
// for otherwise stateless JWTs.
package session
