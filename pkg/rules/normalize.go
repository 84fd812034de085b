// Package rules 定义排班规则的约束模型
package rules

import (
	"fmt"
	"time"

	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/errors"
	"github.com/TingTung93/AI-Schedule-Manager-sub013/pkg/model"
)

// Normalize 将原始约束记录规范化为类型化约束
// 非激活记录被丢弃；载荷与声明类型不匹配时返回 MALFORMED_CONSTRAINT 错误
// 纯映射与校验，不做任何 I/O
func Normalize(records []RawRecord) (Set, error) {
	result := make(Set, 0, len(records))

	for _, r := range records {
		if !r.Active {
			continue
		}

		if r.Priority < 1 || r.Priority > PriorityHard {
			return nil, errors.MalformedConstraint(r.Kind,
				fmt.Sprintf("优先级 %d 超出范围 [1,%d]", r.Priority, PriorityHard))
		}

		c := &Constraint{
			ID:         r.ID,
			Kind:       Kind(r.Kind),
			EmployeeID: r.EmployeeID,
			Priority:   r.Priority,
		}

		var err error
		switch c.Kind {
		case KindAvailability:
			c.Availability, err = parseAvailability(r.Payload)
		case KindPreference:
			c.Preference, err = parsePreference(r.Payload)
		case KindRequirement:
			c.Requirement, err = parseRequirement(r.Payload)
		case KindRestriction:
			c.Restriction, err = parseRestriction(r.Payload)
		default:
			err = errors.MalformedConstraint(r.Kind, "未知的约束类型")
		}
		if err != nil {
			return nil, err
		}

		result = append(result, c)
	}

	return result, nil
}

// parseAvailability 解析可用性载荷
func parseAvailability(payload map[string]interface{}) (*AvailabilityRule, error) {
	rule := &AvailabilityRule{}

	weekdays, err := payloadWeekdays(payload, "unavailable_weekdays")
	if err != nil {
		return nil, errors.MalformedConstraint(string(KindAvailability), err.Error())
	}
	rule.UnavailableWeekdays = weekdays

	dates, err := payloadDates(payload, "unavailable_dates")
	if err != nil {
		return nil, errors.MalformedConstraint(string(KindAvailability), err.Error())
	}
	rule.UnavailableDates = dates

	clock, err := payloadClockRange(payload, "unavailable_clock")
	if err != nil {
		return nil, errors.MalformedConstraint(string(KindAvailability), err.Error())
	}
	rule.UnavailableClock = clock

	if len(rule.UnavailableWeekdays) == 0 && len(rule.UnavailableDates) == 0 && rule.UnavailableClock == nil {
		return nil, errors.MalformedConstraint(string(KindAvailability),
			"缺少 unavailable_weekdays/unavailable_dates/unavailable_clock 中的至少一项")
	}

	return rule, nil
}

// parsePreference 解析偏好载荷
func parsePreference(payload map[string]interface{}) (*PreferenceRule, error) {
	rule := &PreferenceRule{}

	preferred, err := payloadWeekdays(payload, "preferred_weekdays")
	if err != nil {
		return nil, errors.MalformedConstraint(string(KindPreference), err.Error())
	}
	rule.PreferredWeekdays = preferred

	avoid, err := payloadWeekdays(payload, "avoid_weekdays")
	if err != nil {
		return nil, errors.MalformedConstraint(string(KindPreference), err.Error())
	}
	rule.AvoidWeekdays = avoid

	clock, err := payloadClockRange(payload, "preferred_clock")
	if err != nil {
		return nil, errors.MalformedConstraint(string(KindPreference), err.Error())
	}
	rule.PreferredClock = clock

	if len(rule.PreferredWeekdays) == 0 && len(rule.AvoidWeekdays) == 0 && rule.PreferredClock == nil {
		return nil, errors.MalformedConstraint(string(KindPreference),
			"缺少 preferred_weekdays/avoid_weekdays/preferred_clock 中的至少一项")
	}

	return rule, nil
}

// parseRequirement 解析要求载荷
func parseRequirement(payload map[string]interface{}) (*RequirementRule, error) {
	rule := &RequirementRule{}

	weekdays, err := payloadWeekdays(payload, "required_weekdays")
	if err != nil {
		return nil, errors.MalformedConstraint(string(KindRequirement), err.Error())
	}
	rule.RequiredWeekdays = weekdays
	rule.MinMinutesPerWeek = payloadInt(payload, "min_minutes_per_week", 0)

	if len(rule.RequiredWeekdays) == 0 && rule.MinMinutesPerWeek == 0 {
		return nil, errors.MalformedConstraint(string(KindRequirement),
			"缺少 required_weekdays/min_minutes_per_week 中的至少一项")
	}
	if rule.MinMinutesPerWeek < 0 {
		return nil, errors.MalformedConstraint(string(KindRequirement), "min_minutes_per_week 不能为负")
	}

	return rule, nil
}

// parseRestriction 解析限制载荷
func parseRestriction(payload map[string]interface{}) (*RestrictionRule, error) {
	rule := &RestrictionRule{
		MaxConsecutiveDays: payloadInt(payload, "max_consecutive_days", 0),
		MinRestHours:       payloadInt(payload, "min_rest_hours", 0),
		MaxMinutesPerWeek:  payloadInt(payload, "max_minutes_per_week", 0),
	}

	var err error
	rule.NoShiftsBefore, err = payloadClock(payload, "no_shifts_before")
	if err != nil {
		return nil, errors.MalformedConstraint(string(KindRestriction), err.Error())
	}
	rule.NoShiftsAfter, err = payloadClock(payload, "no_shifts_after")
	if err != nil {
		return nil, errors.MalformedConstraint(string(KindRestriction), err.Error())
	}

	if rule.MaxConsecutiveDays < 0 || rule.MinRestHours < 0 || rule.MaxMinutesPerWeek < 0 {
		return nil, errors.MalformedConstraint(string(KindRestriction), "数值字段不能为负")
	}
	if rule.MaxConsecutiveDays == 0 && rule.MinRestHours == 0 && rule.MaxMinutesPerWeek == 0 &&
		rule.NoShiftsBefore == "" && rule.NoShiftsAfter == "" {
		return nil, errors.MalformedConstraint(string(KindRestriction), "载荷为空")
	}

	return rule, nil
}

// 载荷取值辅助函数
// JSON 反序列化后数值统一是 float64，这里兼容 int/int64/float64

func payloadInt(payload map[string]interface{}, key string, defaultVal int) int {
	if val, ok := payload[key]; ok {
		switch v := val.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return defaultVal
}

func payloadClock(payload map[string]interface{}, key string) (string, error) {
	val, ok := payload[key]
	if !ok {
		return "", nil
	}
	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("%s 必须是 HH:MM 字符串", key)
	}
	if _, err := model.ClockMinutes(s); err != nil {
		return "", fmt.Errorf("%s 时刻格式无效: %s", key, s)
	}
	return s, nil
}

func payloadClockRange(payload map[string]interface{}, key string) (*model.ClockRange, error) {
	val, ok := payload[key]
	if !ok {
		return nil, nil
	}
	m, ok := val.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%s 必须是 {start, end} 对象", key)
	}
	start, _ := m["start"].(string)
	end, _ := m["end"].(string)
	if _, err := model.ClockMinutes(start); err != nil {
		return nil, fmt.Errorf("%s.start 时刻格式无效: %s", key, start)
	}
	if _, err := model.ClockMinutes(end); err != nil {
		return nil, fmt.Errorf("%s.end 时刻格式无效: %s", key, end)
	}
	return &model.ClockRange{Start: start, End: end}, nil
}

func payloadWeekdays(payload map[string]interface{}, key string) ([]time.Weekday, error) {
	val, ok := payload[key]
	if !ok {
		return nil, nil
	}
	list, ok := val.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s 必须是星期数组", key)
	}
	result := make([]time.Weekday, 0, len(list))
	for _, item := range list {
		var day int
		switch v := item.(type) {
		case int:
			day = v
		case float64:
			day = int(v)
		default:
			return nil, fmt.Errorf("%s 元素必须是 0-6 的整数", key)
		}
		if day < 0 || day > 6 {
			return nil, fmt.Errorf("%s 元素 %d 超出范围 [0,6]", key, day)
		}
		result = append(result, time.Weekday(day))
	}
	return result, nil
}

func payloadDates(payload map[string]interface{}, key string) ([]string, error) {
	val, ok := payload[key]
	if !ok {
		return nil, nil
	}
	list, ok := val.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s 必须是日期数组", key)
	}
	result := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%s 元素必须是 YYYY-MM-DD 字符串", key)
		}
		if _, err := time.Parse(model.DateLayout, s); err != nil {
			return nil, fmt.Errorf("%s 日期格式无效: %s", key, s)
		}
		result = append(result, s)
	}
	return result, nil
}
