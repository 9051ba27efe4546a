package model

type Lesson struct {
	ID        string `json:"id"`
	TeacherID string `json:"teacher_id"`
	Title     string `json:"title"`
}
