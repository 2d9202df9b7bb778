// Package mail delivers transactional authentication mail over SMTP.
//
// The only message the engine sends today is the password reset link.
// Delivery is synchronous; the engine decides what a failed send means
// for the surrounding operation.
package mail
