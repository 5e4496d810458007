package model

// Student is one entry of a classroom roster.  Only active students take
// part in seat arrangements.
//
// Fields:
//  ID        – primary key identifier.
//  ClassID   – classroom the student belongs to.
//  StudentNo – school-assigned student number.
//  Name      – display name (may use non-Latin scripts).
//  Gender    – free-text gender marker, used only for document styling.
//  IsActive  – false when the student was removed from the class.
type Student struct {
    ID        uint64 // students.id
    ClassID   uint64 // students.class_id
    StudentNo string // students.student_no
    Name      string // students.name
    Gender    string // students.gender
    IsActive  bool   // students.is_active
}
