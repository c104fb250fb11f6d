// Package service contains the application use cases. TaskService is the task
// lifecycle manager: it validates and sanitizes input, applies defaults,
// enforces ownership and governs status transitions. UserService handles
// registration and sign-in.
//
// Services depend on the store interfaces and never on a concrete database.
package service
