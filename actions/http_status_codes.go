package actions

// A list of status codes used inside the application. For more details see: https://httpstatuses.com/

// OK - success
const OK = 200

// Created - resource created
const Created = 201

// Accepted - the request was registered and is processed in the background
const Accepted = 202

// BadRequest - sent when a bad request was submitted by the client
const BadRequest = 400

// NotFound - the resource identified by the given ID does not exist
const NotFound = 404

// Conflict - the resource already exists
const Conflict = 409

// PreconditionFailed - a condition must be met before the request can be processed
const PreconditionFailed = 412

// ValidationFailed - the request did not pass field verification
const ValidationFailed = 422

// ServerError - internal server error
const ServerError = 500

// BadGateway - an upstream provider failed
const BadGateway = 502

// ServiceUnavailable - the feature is switched off or a dependency is down
const ServiceUnavailable = 503
